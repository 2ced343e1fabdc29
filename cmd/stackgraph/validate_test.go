// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/stackgraph/stackgraph/pkg/archspec"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{
		"/work/shop.yaml": shopSpec,
		"/work/bad.yaml":  "name: bad\nservices:\n  api:\n    ports: {target: 70000}\n",
	})

	if err := cli.run(t, "validate", "/work/shop.yaml"); err != nil {
		t.Fatalf("validate error = %v\nstderr:\n%s", err, cli.stderr)
	}
	if out := cli.stdout.String(); !strings.Contains(out, "/work/shop.yaml") || !strings.Contains(out, "4 services: web, api, db, mailer") {
		t.Errorf("validate output = %q", out)
	}

	cli.stdout.Reset()
	err := cli.run(t, "validate", "/work/bad.yaml", "/work/shop.yaml", "/work/absent.yaml")
	if !errors.Is(err, archspec.ErrInvalidSpec) {
		t.Fatalf("validate error = %v, want ErrInvalidSpec", err)
	}
	out := cli.stdout.String()
	if !strings.Contains(out, "✗ /work/bad.yaml") || !strings.Contains(out, "✗ /work/absent.yaml") {
		t.Errorf("every failing file should be listed:\n%s", out)
	}
	if !strings.Contains(out, "/work/shop.yaml") {
		t.Errorf("valid files should still be checked:\n%s", out)
	}
	if !strings.Contains(cli.stderr.String(), "services.api.ports.target") {
		t.Errorf("stderr should name the offending field:\n%s", cli.stderr)
	}
}
