package docstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerifyPassesOnHealthyDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data")
	checks := Verify(context.Background(), Config{Dir: dir})
	if !Passed(checks) {
		for _, check := range checks {
			if check.Err != nil {
				t.Errorf("%s: %v", check.Name, check.Err)
			}
		}
		t.Fatalf("verification failed")
	}

	// Verify cleans up after itself.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "verify-") {
			t.Fatalf("leftover verification file %s", entry.Name())
		}
	}
}

func TestPassedEmptySetIsFailure(t *testing.T) {
	t.Parallel()

	if Passed(nil) {
		t.Fatalf("empty check set must not pass")
	}
}
