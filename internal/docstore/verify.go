package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/xid"
)

// Check represents a verification step outcome.
type Check struct {
	Name string
	Err  error
}

// Verify exercises a store rooted at cfg.Dir for the guarantees the portal
// depends on: default-on-absence, backup freshness, corruption recovery and
// mutual exclusion between concurrent writers. It only touches documents
// under a throwaway name and removes them afterwards.
func Verify(ctx context.Context, cfg Config) []Check {
	result := []Check{}
	store, err := New(cfg)
	if err != nil {
		return append(result, Check{Name: "Init", Err: err})
	}

	name := "verify-" + xid.New().String()
	path, _ := store.documentPath(name)
	defer func() {
		_ = os.Remove(path)
		_ = os.Remove(path + backupSuffix)
		_ = os.Remove(path + lockSuffix)
	}()

	checks := []struct {
		name string
		fn   func() error
	}{
		{
			name: "DefaultOnAbsence",
			fn: func() error {
				value := map[string]string{}
				found, err := store.Load(ctx, name, &value)
				if err != nil {
					return err
				}
				if found || len(value) != 0 {
					return fmt.Errorf("expected absent document, got %v", value)
				}
				return nil
			},
		},
		{
			name: "WriteAndReadBack",
			fn: func() error {
				if err := store.Save(ctx, name, map[string]string{"gen": "1"}); err != nil {
					return err
				}
				value := map[string]string{}
				found, err := store.Load(ctx, name, &value)
				if err != nil {
					return err
				}
				if !found || value["gen"] != "1" {
					return fmt.Errorf("read back %v", value)
				}
				return nil
			},
		},
		{
			name: "BackupFreshness",
			fn: func() error {
				if err := store.Save(ctx, name, map[string]string{"gen": "2"}); err != nil {
					return err
				}
				backup, err := os.ReadFile(path + backupSuffix)
				if err != nil {
					return err
				}
				previous, err := json.MarshalIndent(map[string]string{"gen": "1"}, "", "  ")
				if err != nil {
					return err
				}
				if !bytes.Equal(backup, previous) {
					return fmt.Errorf("backup does not hold previous generation")
				}
				return nil
			},
		},
		{
			name: "CorruptionRecovery",
			fn: func() error {
				if err := os.WriteFile(path, []byte("{Truncated"), 0o644); err != nil {
					return err
				}
				value := map[string]string{}
				found, err := store.Load(ctx, name, &value)
				if err != nil {
					return err
				}
				if !found || value["gen"] != "1" {
					return fmt.Errorf("expected backup content, got %v", value)
				}
				return nil
			},
		},
		{
			name: "ConcurrentWriters",
			fn: func() error {
				var wg sync.WaitGroup
				errs := make(chan error, 2)
				for _, gen := range []string{"a", "b"} {
					wg.Add(1)
					go func(gen string) {
						defer wg.Done()
						errs <- store.Save(ctx, name, map[string]string{"gen": gen})
					}(gen)
				}
				wg.Wait()
				close(errs)
				for err := range errs {
					if err != nil {
						return err
					}
				}
				value := map[string]string{}
				if _, err := store.Load(ctx, name, &value); err != nil {
					return err
				}
				if value["gen"] != "a" && value["gen"] != "b" {
					return fmt.Errorf("final content is neither writer's value: %v", value)
				}
				return nil
			},
		},
	}

	for _, check := range checks {
		result = append(result, Check{Name: check.name, Err: check.fn()})
	}
	return result
}

// Passed reports whether every check in the set succeeded.
func Passed(checks []Check) bool {
	for _, check := range checks {
		if check.Err != nil {
			return false
		}
	}
	return len(checks) > 0
}
