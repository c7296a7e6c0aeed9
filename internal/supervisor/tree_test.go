// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blockingService runs until its context is canceled, closing started on
// entry.
type blockingService struct {
	name    string
	started chan struct{}
}

func newBlockingService(name string) *blockingService {
	return &blockingService{name: name, started: make(chan struct{})}
}

func (s *blockingService) Serve(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return s.name }

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree, err := NewTree(testLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	cfg := tree.config
	if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
		t.Errorf("failure config = %+v, want suture defaults", cfg)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("timing config = %+v, want suture defaults", cfg)
	}
}

func TestTreeRunsAllLayers(t *testing.T) {
	tree, err := NewTree(testLogger(), DefaultTreeConfig())
	if err != nil {
		t.Fatal(err)
	}

	data := newBlockingService("data-svc")
	messaging := newBlockingService("messaging-svc")
	ops := newBlockingService("ops-svc")
	tree.AddDataService(data)
	tree.AddMessagingService(messaging)
	tree.AddOpsService(ops)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*blockingService{data, messaging, ops} {
		select {
		case <-svc.started:
		case <-time.After(5 * time.Second):
			t.Fatalf("service %s never started", svc)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("tree terminated with %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

func TestTreeRestartsCrashedService(t *testing.T) {
	tree, err := NewTree(testLogger(), DefaultTreeConfig())
	if err != nil {
		t.Fatal(err)
	}

	starts := make(chan struct{}, 8)
	crashing := crashOnceService{starts: starts}
	tree.AddDataService(&crashing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	// First run crashes; the supervisor brings the service back.
	for i := 0; i < 2; i++ {
		select {
		case <-starts:
		case <-time.After(5 * time.Second):
			t.Fatalf("service start %d never happened", i+1)
		}
	}
}

type crashOnceService struct {
	starts  chan struct{}
	crashed bool
}

func (s *crashOnceService) Serve(ctx context.Context) error {
	s.starts <- struct{}{}
	if !s.crashed {
		s.crashed = true
		return errors.New("transient failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *crashOnceService) String() string { return "crash-once" }
