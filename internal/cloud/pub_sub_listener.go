// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"errors"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener feeds every message of a subscription to a command, one
// message at a time. The message body is placed under cor.CtxIn.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	// Renders are CPU bound and serialized; pulling more would only let
	// messages expire while they wait.
	sub.ReceiveSettings.MaxOutstandingMessages = 1
	sub.ReceiveSettings.NumGoroutines = 1

	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches the command if none was set yet.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving in a background goroutine until ctx is done.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.ID())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(msgCtx, "receive-message")
			defer span.End()
			span.SetAttributes(attribute.String("message_id", msg.ID))
			slog.InfoContext(spanCtx, "received message", "message_id", msg.ID)

			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))
			defer chainCtx.Close()

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
				return
			}

			span.SetStatus(codes.Error, "failed")
			permanent := false
			for name, e := range chainCtx.GetErrors() {
				slog.ErrorContext(spanCtx, "error executing chain", "command", name, "error", e)
				permanent = permanent || IsPermanent(e)
			}
			if permanent {
				// Redelivery cannot fix a bad request; drop it.
				msg.Ack()
				return
			}
			msg.Nack()
		})
		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}

// IsPermanent reports whether err comes from bad input rather than a
// transient failure.
func IsPermanent(err error) bool {
	var validation *model.ValidationError
	return errors.Is(err, model.ErrEmptyInput) ||
		errors.Is(err, model.ErrInvalidRequest) ||
		errors.As(err, &validation)
}
