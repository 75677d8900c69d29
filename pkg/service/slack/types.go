package slack

import (
	"context"

	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

// Service posts dashboard notices to a Slack channel
type Service interface {
	// PostNotice posts notice to the configured channel and returns the message timestamp
	PostNotice(ctx context.Context, notice *model.Notice) (string, error)

	// Notify posts notice, discarding the timestamp. It satisfies usecase.Notifier.
	Notify(ctx context.Context, notice *model.Notice) error
}
