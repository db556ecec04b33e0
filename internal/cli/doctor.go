package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/squadcart/integration/database/redis"
)

const doctorTimeout = 10 * time.Second

type check struct {
	name string
	run  func(context.Context) error
}

func newDoctorCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity and local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()

			checks := rt.app.checks()
			results := make([]error, len(checks))

			g, gctx := errgroup.WithContext(ctx)
			for i, c := range checks {
				g.Go(func() error {
					results[i] = c.run(gctx)
					return nil
				})
			}
			_ = g.Wait()

			out := cmd.OutOrStdout()
			var failed int
			for i, c := range checks {
				if results[i] != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %-12s %v\n", c.name, results[i])
					continue
				}
				fmt.Fprintf(out, "ok    %s\n", c.name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(checks))
			}
			return nil
		},
	}
}

func (a *app) checks() []check {
	checks := []check{
		{name: "api", run: a.checkAPI},
		{name: "cookie-jar", run: func(context.Context) error {
			_, err := a.gate.Enabled()
			return err
		}},
	}
	if a.redis != nil {
		checks = append(checks, check{name: "redis", run: redis.Healthcheck(a.redis)})
	}
	return checks
}

// checkAPI treats any HTTP answer as reachable; only transport errors fail.
func (a *app) checkAPI(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, a.cfg.API.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Join(errors.New("api unreachable"), err)
	}
	resp.Body.Close()
	return nil
}
