// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package purchase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/bookshelf-users/internal/platform/apperr"
	"github.com/taibuivan/bookshelf-users/internal/users/account"
)

// Handler processes one decoded purchase. Returned errors are logged by the
// consumer; the message is not redelivered.
type Handler interface {
	HandlePurchase(context context.Context, event Event) error
}

// UserLookupHandler records purchases against known accounts.
type UserLookupHandler struct {
	users  account.UserRepository
	logger *slog.Logger
}

// NewUserLookupHandler constructs the default purchase handler.
func NewUserLookupHandler(users account.UserRepository, logger *slog.Logger) *UserLookupHandler {
	return &UserLookupHandler{users: users, logger: logger}
}

/*
HandlePurchase resolves the buyer and logs the purchase.

Description: Purchases by unknown or non-numeric user ids are logged at
warn level and acknowledged.

Parameters:
  - context: context.Context
  - event: Event (already validated by ParseEvent)

Returns:
  - error: Storage failures only
*/
func (handler *UserLookupHandler) HandlePurchase(context context.Context, event Event) error {
	userID, err := event.UserID.Int64()
	if err != nil {
		handler.logger.WarnContext(context, "book_purchase_unknown_user",
			slog.String("user_id", string(event.UserID)),
			slog.String("book_id", string(event.BookID)),
		)
		return nil
	}

	user, err := handler.users.FindByID(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			handler.logger.WarnContext(context, "book_purchase_unknown_user",
				slog.Int64("user_id", userID),
				slog.String("book_id", string(event.BookID)),
			)
			return nil
		}
		return fmt.Errorf("purchase_user_lookup_failed: %w", err)
	}

	handler.logger.InfoContext(context, "book_purchase_received",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("book_id", string(event.BookID)),
		slog.String("transaction_type", event.TransactionType),
	)

	return nil
}
