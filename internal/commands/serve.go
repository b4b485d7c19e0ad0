package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/okra-platform/stitch/internal/gateway"
	"github.com/okra-platform/stitch/internal/typeinfo"
	"github.com/okra-platform/stitch/internal/watch"
)

const reloadDelay = 200 * time.Millisecond

// ServeOptions contains options for the serve command
type ServeOptions struct {
	// Port overrides serve.port from stitch.json
	Port int
	// Watch reloads schemas when files matching serve.watch change
	Watch bool
}

// schemaServer keeps the gateway's namespaces in sync with the project's schema files
type schemaServer struct {
	project *project
	gateway gateway.Gateway
	logger  zerolog.Logger
}

func newSchemaServer(p *project, logger zerolog.Logger) (*schemaServer, error) {
	gen, err := typeinfo.GeneratorFor(p.config.Recorder.IDs)
	if err != nil {
		return nil, err
	}
	recorder := typeinfo.NewRecorder(typeinfo.WithLogger(logger), typeinfo.WithIDs(gen))
	return &schemaServer{
		project: p,
		gateway: gateway.New(gateway.WithLogger(logger), gateway.WithRecorder(recorder)),
		logger:  logger,
	}, nil
}

// load builds every namespace schema. A namespace that fails keeps the
// schema it was serving; the joined errors are returned.
func (s *schemaServer) load(ctx context.Context) error {
	var errs []error
	for _, namespace := range s.project.config.NamespaceNames() {
		path, err := s.project.config.SchemaPath(s.project.root, namespace)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_, graph, err := loadSchemaFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("namespace %s: %w", namespace, err))
			continue
		}
		if err := s.gateway.UpdateSchema(ctx, namespace, graph); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// watch reloads the schemas after changes until ctx is done
func (s *schemaServer) watch(ctx context.Context) error {
	serve := s.project.config.Serve
	reload, stop := watch.Debounce(reloadDelay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.load(ctx); err != nil {
			s.logger.Error().Err(err).Msg("schema reload failed")
			return
		}
		s.logger.Info().Strs("namespaces", s.gateway.Namespaces()).Msg("schemas reloaded")
	})

	fw, err := watch.NewFileWatcher(serve.Watch, serve.Exclude, func(path string, op fsnotify.Op) {
		s.logger.Debug().Str("path", path).Str("op", op.String()).Msg("schema file changed")
		reload()
	}, watch.WithLogger(s.logger))
	if err != nil {
		stop()
		return err
	}
	defer stop()
	defer fw.Close()

	if err := fw.AddDirectory(s.project.root); err != nil {
		return err
	}
	return fw.Start(ctx)
}

func (c *Controller) Serve(ctx context.Context, opts ServeOptions) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	port := p.config.Serve.Port
	if opts.Port > 0 {
		port = opts.Port
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := log.Logger.With().Str("project", p.config.Name).Logger()
	server, err := newSchemaServer(p, logger)
	if err != nil {
		return err
	}
	if err := server.load(ctx); err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: server.gateway.Handler(),
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Fprintf(c.out(), "Starting gateway on port %d...\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	if opts.Watch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Fprintf(c.out(), "Watching %s for schema changes...\n", filepath.Clean(p.root))
			if err := server.watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("watcher error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		fmt.Fprintf(c.out(), "\nReceived signal %v, shutting down...\n", sig)
	case runErr = <-errChan:
		fmt.Fprintf(c.out(), "Server error: %v\n", runErr)
	case <-ctx.Done():
		fmt.Fprintln(c.out(), "Context cancelled, shutting down...")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down gateway")
	}

	// the watcher must be done reloading before namespaces are dropped
	wg.Wait()
	server.gateway.Shutdown(shutdownCtx)

	fmt.Fprintln(c.out(), "Serve shutdown complete")
	return runErr
}
