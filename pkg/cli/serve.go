package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/cli/config"
	httpctrl "github.com/lheh1167/slack-pair-bot/pkg/controller/http"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/service/worker"
	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/async"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var pairingCfg config.Pairing
	var slackCfg config.Slack
	var repoCfg config.Repository
	var dirCfg config.Directory

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("PAIRBOT_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, pairingCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, dirCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the slash command and modal webhooks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			pairing, err := pairingCfg.Configure(c)
			if err != nil {
				return goerr.Wrap(err, "failed to load pairing configuration")
			}

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack service")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			provider, err := dirCfg.Configure(repo.Directory(), slackSvc)
			if err != nil {
				return goerr.Wrap(err, "failed to configure directory source")
			}
			cache := directory.NewCache(provider, directory.WithTTL(pairing.DirectoryTTL))

			// Mirror worker, only with the mirror source: DeleteAll -> SaveMany
			// keeps the repository copy in step with Slack; a new mirror drops
			// the cached snapshot
			var refreshWorker *worker.DirectoryRefreshWorker
			if interval := dirCfg.RefreshInterval(); interval > 0 {
				refreshWorker = worker.NewDirectoryRefreshWorker(repo, directory.NewSlackProvider(slackSvc), interval,
					worker.WithOnRefresh(cache.Invalidate))
				if err := refreshWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start directory refresh worker")
				}
			}

			policy := usecase.NewAllowListPolicy(pairing.AuthorizedCallers, directory.NewSlackProvider(slackSvc))
			if policy.IsOpen() {
				logger.Warn("No authorized callers configured, every workspace member may run pairings")
			}

			uc := usecase.New(cache,
				usecase.WithPairingConfig(pairing),
				usecase.WithAuthPolicy(policy),
				usecase.WithSlackService(slackSvc),
			)

			httpOpts := []httpctrl.Options{
				httpctrl.WithDirectoryCache(cache),
				httpctrl.WithDirectoryRepository(repo.Directory()),
			}
			if slackCfg.IsWebhookConfigured() {
				httpOpts = append(httpOpts, httpctrl.WithSlack(uc.Slack, slackCfg.SigningSecret()))
				logger.Info("Slack command and interaction handlers enabled")
			} else {
				logger.Warn("Slack signing secret not configured, only /health is served")
			}

			httpHandler, err := httpctrl.New(httpOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server",
					"addr", addr,
					"pairing", pairingCfg,
					"slack", slackCfg,
					"repository", repoCfg,
					"directory", dirCfg,
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				if refreshWorker != nil {
					refreshWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Let in-flight batches finish posting
				if err := async.Wait(shutdownCtx); err != nil {
					logger.Warn("pairing runs still in flight at shutdown", "error", err)
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
