// Package mailbox talks to the monitored "magic mailbox" over the Gmail REST
// API. It exposes exactly the three operations the ingestion pipeline needs:
// list unread message IDs, fetch a full message, and mark a message read.
//
// Authentication uses a long-lived OAuth refresh token; acquiring that token
// is a one-time out-of-band step, not this package's concern.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/atlasnomad/backend/internal/domain"
)

// GmailClient reads and mutates the magic mailbox through the Gmail API.
type GmailClient struct {
	svc     *gmail.Service
	address string
	logger  *slog.Logger
}

// NewGmailClient builds an authenticated Gmail client for the given mailbox.
// The OAuth token source refreshes access tokens lazily, so a bad refresh
// token surfaces as domain.ErrAuth on the first API call, not here.
func NewGmailClient(ctx context.Context, address, clientID, clientSecret, refreshToken string, logger *slog.Logger) (*GmailClient, error) {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailModifyScope},
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("mailbox.NewGmailClient: %w", err)
	}

	return &GmailClient{svc: svc, address: address, logger: logger}, nil
}

// ListUnread returns the IDs of all unread messages in the mailbox.
// Transient API failures are retried with backoff before giving up.
func (c *GmailClient) ListUnread(ctx context.Context) ([]string, error) {
	var ids []string

	err := withBackoff(ctx, func(ctx context.Context) error {
		ids = ids[:0]
		pageToken := ""
		for {
			call := c.svc.Users.Messages.List(c.address).Q("is:unread").Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			resp, err := call.Do()
			if err != nil {
				return classifyErr(err)
			}
			for _, m := range resp.Messages {
				ids = append(ids, m.Id)
			}
			if resp.NextPageToken == "" {
				return nil
			}
			pageToken = resp.NextPageToken
		}
	})
	if err != nil {
		return nil, fmt.Errorf("mailbox.GmailClient.ListUnread: %w", err)
	}

	return ids, nil
}

// Fetch retrieves the full message payload for id and resolves its plain-text
// body. An empty body means the message has no non-empty text/plain part;
// such messages are counted but not classified. Returns domain.ErrNotFound if
// the message vanished since it was listed; callers treat that as a skip, not
// a fatal error.
func (c *GmailClient) Fetch(ctx context.Context, id string) (string, error) {
	var msg *gmail.Message

	err := withBackoff(ctx, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Users.Messages.Get(c.address, id).Format("full").Context(ctx).Do()
		if err != nil {
			return classifyErr(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("mailbox.GmailClient.Fetch: %w", err)
	}

	return ResolveBody(msg.Payload), nil
}

// MarkRead clears the UNREAD label on the message.
// A failure here must never undo a persisted segment; the caller logs it and
// moves on, leaving the message to be re-offered (and deduplicated) next run.
func (c *GmailClient) MarkRead(ctx context.Context, id string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{"UNREAD"}}
	_, err := c.svc.Users.Messages.Modify(c.address, id, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mailbox.GmailClient.MarkRead: %w", classifyErr(err))
	}
	return nil
}

// withBackoff runs f, retrying up to twice with fibonacci backoff when the
// failure is transient. Auth and not-found failures are never retried.
func withBackoff(ctx context.Context, f func(context.Context) error) error {
	b := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := f(ctx); err != nil {
			if errors.Is(err, domain.ErrTransient) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// classifyErr maps a Gmail API failure onto the domain error taxonomy.
//
// A rejected or expired refresh token surfaces as an *oauth2.RetrieveError
// ("invalid_grant"), usually wrapped in a *url.Error by the HTTP transport.
// API-level failures carry a *googleapi.Error with an HTTP status code.
// Anything else (DNS, timeouts, connection resets) is transient.
func classifyErr(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %s", domain.ErrAuth, rerr.ErrorCode)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return fmt.Errorf("%w: gmail returned %d", domain.ErrAuth, gerr.Code)
		case gerr.Code == 404:
			return fmt.Errorf("%w: message no longer exists", domain.ErrNotFound)
		default:
			return fmt.Errorf("%w: gmail returned %d", domain.ErrTransient, gerr.Code)
		}
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%w: %v", domain.ErrTransient, uerr)
	}

	return fmt.Errorf("%w: %v", domain.ErrTransient, err)
}
