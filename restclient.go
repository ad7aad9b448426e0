package logrelay

import (
	"context"
	"crypto/tls"

	"github.com/blutspende/logrelay/config"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// NewRestyClient has no overall timeout, the log stream response is read for as long as it stays open
func NewRestyClient(ctx context.Context, configuration *config.Configuration) *resty.Client {
	client := resty.New().
		OnBeforeRequest(configureRequest(ctx, configuration))

	if configuration.Development {
		client = client.SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})
	}

	return client
}

func configureRequest(ctx context.Context, configuration *config.Configuration) resty.RequestMiddleware {
	return func(client *resty.Client, request *resty.Request) error {
		// requests carrying their own context keep it so a closed stream cancels its read
		if request.Context() == context.Background() {
			request.SetContext(ctx)
		}
		if configuration.LogLevel <= zerolog.DebugLevel {
			request.EnableTrace()
		}
		return nil
	}
}
