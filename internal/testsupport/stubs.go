package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// StubBinary writes a /bin/sh script named name into binDir and prepends
// binDir to PATH for the rest of the test. body is the script after the
// shebang line.
func StubBinary(t testing.TB, binDir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}

	path := os.Getenv("PATH")
	if !strings.HasPrefix(path, binDir+string(os.PathListSeparator)) {
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+path)
	}
	return target
}
