package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/noah-isme/slotbook-api/internal/models"
	"github.com/noah-isme/slotbook-api/internal/service"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type hostByUsername interface {
	FindByUsername(ctx context.Context, username string) (*models.Host, error)
}

type tokenIssuer interface {
	IssueFor(host *models.Host) (*service.IssuedToken, error)
}

// TokenCmd prints a bearer token for a host so operators can call the host API.
type TokenCmd struct {
	Username string `arg:"" help:"Host username."`
	Quiet    bool   `short:"q" help:"Print only the token."`
}

func (c *TokenCmd) Run(ctx *Context) error {
	b, err := ctx.backend()
	if err != nil {
		return err
	}
	return issueToken(ctx.Ctx, ctx.Out, b.hosts, b.tokens, c.Username, c.Quiet)
}

func issueToken(ctx context.Context, out io.Writer, hosts hostByUsername, issuer tokenIssuer, username string, quiet bool) error {
	host, err := hosts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("host %q not found", username))
		}
		return fmt.Errorf("find host: %w", err)
	}
	issued, err := issuer.IssueFor(host)
	if err != nil {
		return err
	}
	if quiet {
		fmt.Fprintln(out, issued.Token)
		return nil
	}
	fmt.Fprintf(out, "host     %s (%s)\n", host.Username, host.ID)
	fmt.Fprintf(out, "expires  %s\n", issued.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(out, "token    %s\n", issued.Token)
	return nil
}
