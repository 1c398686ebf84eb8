// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package wpt

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
)

// fakeRunner records external command invocations and lets tests choose
// exit codes and side effects per invocation.
type fakeRunner struct {
	cmds    [][]string
	respond func(name string, args []string) (int, error)
}

func (r *fakeRunner) run(ctx context.Context, name string, args ...string) (int, error) {
	r.cmds = append(r.cmds, append([]string{name}, args...))
	if r.respond != nil {
		return r.respond(name, args)
	}
	return 0, nil
}

func isMetadataCmd(args []string) bool {
	return len(args) > 0 && strings.HasSuffix(args[0], "build_wpt_metadata.py")
}

// flagValue returns the token following the first occurrence of name.
func flagValue(args []string, name string) string {
	for i, s := range args {
		if s == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

const dumpsysWebView = `Current WebView implementation: com.google.android.webview
Current WebView package (name, version): (com.google.android.webview, 91.0.4472.101)
Minimum WebView version code: 303012500`

// newWebViewAdapter builds a webview adapter with a shell and provider apk
// configured, backed by a recording device and runner.
func newWebViewAdapter(t *testing.T) (*Adapter, *fakeDevice, *fakeRunner) {
	t.Helper()
	a, d := newTestAdapter(t, AndroidWebView, []string{
		"-webdriver-binary", "/out/chromedriver",
		"-system-webview-shell", "/out/shell.apk",
		"-webview-provider", "/out/provider.apk",
	}, map[string]string{
		"/out/shell.apk":    "org.chromium.webview_shell",
		"/out/provider.apk": "com.android.webview.beta",
	})
	d.shellOut = map[string]string{"dumpsys webviewupdate": dumpsysWebView}
	r := &fakeRunner{}
	a.runCmd = r.run
	return a, d, r
}

func TestRun_MetadataFailureSkipsRunner(t *testing.T) {
	a, _ := newTestAdapter(t, ChromeAndroid, []string{
		"-webdriver-binary", "/out/chromedriver",
		"-chrome-package-name", "com.android.chrome",
	}, nil)
	r := &fakeRunner{
		respond: func(name string, args []string) (int, error) {
			if isMetadataCmd(args) {
				return 2, nil
			}
			t.Errorf("Unexpected command after metadata failure: %v", args)
			return 0, nil
		},
	}
	a.runCmd = r.run

	code, err := a.Run(context.Background())
	if err != nil {
		t.Error("Run failed: ", err)
	}
	if code != 2 {
		t.Errorf("Run returned code %d; want 2", code)
	}
	if len(r.cmds) != 1 {
		t.Errorf("Got %d command invocations; want 1 (metadata builder only)", len(r.cmds))
	}

	// The scratch directory does not survive the run.
	if dir := flagValue(r.cmds[0], "--metadata-output-dir"); dir == "" {
		t.Error("Metadata builder invoked without an output dir")
	} else if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Metadata dir %s still exists after the run", dir)
	}
	if a.metadataDir != "" {
		t.Errorf("metadataDir = %q after the run; want empty", a.metadataDir)
	}
}

func TestRun_CreatesEmptyMetadataDir(t *testing.T) {
	a, _ := newTestAdapter(t, ChromeAndroid, []string{
		"-webdriver-binary", "/out/chromedriver",
		"-chrome-package-name", "com.android.chrome",
	}, nil)

	var runnerDir string
	var runnerEntries []os.FileInfo
	r := &fakeRunner{}
	r.respond = func(name string, args []string) (int, error) {
		if isMetadataCmd(args) {
			// Produce no metadata files at all.
			return 0, nil
		}
		runnerDir = flagValue(args, "--metadata")
		if runnerDir != "" {
			var err error
			if runnerEntries, err = ioutil.ReadDir(runnerDir); err != nil {
				t.Error("Metadata dir not readable during the run: ", err)
			}
		}
		return 0, nil
	}
	a.runCmd = r.run

	if code, err := a.Run(context.Background()); err != nil || code != 0 {
		t.Fatalf("Run = (%d, %v); want (0, nil)", code, err)
	}
	if runnerDir == "" {
		t.Fatal("Runner invoked without --metadata")
	}
	if len(runnerEntries) != 0 {
		t.Errorf("Metadata dir had %d entries during the run; want 0", len(runnerEntries))
	}
	if _, err := os.Stat(runnerDir); !os.IsNotExist(err) {
		t.Errorf("Metadata dir %s still exists after the run", runnerDir)
	}
}

func TestRun_PassesMetadataToRunner(t *testing.T) {
	a, _ := newTestAdapter(t, ChromeAndroid, []string{
		"-webdriver-binary", "/out/chromedriver",
		"-chrome-package-name", "com.android.chrome",
	}, nil)

	var sawFile bool
	r := &fakeRunner{}
	r.respond = func(name string, args []string) (int, error) {
		if isMetadataCmd(args) {
			dir := flagValue(args, "--metadata-output-dir")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return 0, err
			}
			return 0, ioutil.WriteFile(filepath.Join(dir, "test.ini"), []byte("expected: FAIL\n"), 0644)
		}
		dir := flagValue(args, "--metadata")
		_, err := os.Stat(filepath.Join(dir, "test.ini"))
		sawFile = err == nil
		return 0, nil
	}
	a.runCmd = r.run

	if code, err := a.Run(context.Background()); err != nil || code != 0 {
		t.Fatalf("Run = (%d, %v); want (0, nil)", code, err)
	}
	if !sawFile {
		t.Error("Runner did not see the metadata file the builder wrote")
	}
}

func TestRun_ReturnsRunnerExitCode(t *testing.T) {
	a, _ := newTestAdapter(t, ChromeAndroid, []string{
		"-webdriver-binary", "/out/chromedriver",
		"-chrome-package-name", "com.android.chrome",
	}, nil)
	r := &fakeRunner{
		respond: func(name string, args []string) (int, error) {
			if isMetadataCmd(args) {
				return 0, nil
			}
			return 7, nil
		},
	}
	a.runCmd = r.run

	code, err := a.Run(context.Background())
	if err != nil {
		t.Error("Run failed: ", err)
	}
	if code != 7 {
		t.Errorf("Run returned code %d; want 7", code)
	}
	if len(r.cmds) != 2 {
		t.Fatalf("Got %d command invocations; want 2", len(r.cmds))
	}
	if name := r.cmds[0][0]; name != "vpython3" {
		t.Errorf("Commands run under %q; want vpython3", name)
	}
	if got := r.cmds[1][1]; got != "/src/third_party/wpt_tools/wpt/wpt" {
		t.Errorf("Second invocation started with %q; want the runner script", got)
	}
}

func TestRun_InstallAndReleaseOrder(t *testing.T) {
	a, d, _ := newWebViewAdapter(t)

	if code, err := a.Run(context.Background()); err != nil || code != 0 {
		t.Fatalf("Run = (%d, %v); want (0, nil)", code, err)
	}
	want := [][]string{
		{"install", "/out/shell.apk"},
		{"shell", "dumpsys", "webviewupdate"},
		{"install", "/out/provider.apk"},
		{"shell", "cmd", "webview", "set-webview-implementation", "com.android.webview.beta"},
		{"shell", "cmd", "webview", "set-webview-implementation", "com.google.android.webview"},
		{"uninstall", "com.android.webview.beta"},
		{"uninstall", "org.chromium.webview_shell"},
	}
	if diff := cmp.Diff(d.calls, want); diff != "" {
		t.Errorf("Device call sequence mismatch (-got +want):\n%s", diff)
	}
}

func TestRun_ReleasesOnRunnerFailure(t *testing.T) {
	a, d, r := newWebViewAdapter(t)
	r.respond = func(name string, args []string) (int, error) {
		if isMetadataCmd(args) {
			return 0, nil
		}
		return 1, nil
	}

	code, err := a.Run(context.Background())
	if err != nil {
		t.Error("Run failed: ", err)
	}
	if code != 1 {
		t.Errorf("Run returned code %d; want 1", code)
	}

	// The failing run still restores the provider and removes both packages.
	tail := [][]string{
		{"shell", "cmd", "webview", "set-webview-implementation", "com.google.android.webview"},
		{"uninstall", "com.android.webview.beta"},
		{"uninstall", "org.chromium.webview_shell"},
	}
	if len(d.calls) < len(tail) {
		t.Fatalf("Got %d device calls; want at least %d", len(d.calls), len(tail))
	}
	if diff := cmp.Diff(d.calls[len(d.calls)-len(tail):], tail); diff != "" {
		t.Errorf("Cleanup sequence mismatch (-got +want):\n%s", diff)
	}
}

func TestRun_MismatchedPackageName(t *testing.T) {
	a, d := newTestAdapter(t, AndroidWebLayer, []string{
		"-webdriver-binary", "/out/chromedriver",
		"-weblayer-shell", "/out/shell.apk",
	}, map[string]string{"/out/shell.apk": "com.wrong.pkg"})
	r := &fakeRunner{}
	a.runCmd = r.run

	code, err := a.Run(context.Background())
	if err == nil {
		t.Fatal("Run unexpectedly succeeded with a mismatched apk")
	}
	if code != 1 {
		t.Errorf("Run returned code %d; want 1", code)
	}
	if !strings.Contains(err.Error(), "incorrect package name") {
		t.Errorf("Run returned %q; want mention of the package mismatch", err)
	}
	if n := d.countCalls("install"); n != 0 {
		t.Errorf("Got %d install calls; want 0", n)
	}
	if len(r.cmds) != 0 {
		t.Errorf("Got %d command invocations; want 0", len(r.cmds))
	}
}

func TestRun_NoAPKsNoDeviceCalls(t *testing.T) {
	a, d := newTestAdapter(t, ChromeAndroid, []string{
		"-webdriver-binary", "/out/chromedriver",
		"-chrome-package-name", "com.android.chrome",
	}, nil)
	r := &fakeRunner{}
	a.runCmd = r.run

	if code, err := a.Run(context.Background()); err != nil || code != 0 {
		t.Fatalf("Run = (%d, %v); want (0, nil)", code, err)
	}
	if n := d.countCalls("install") + d.countCalls("uninstall"); n != 0 {
		t.Errorf("Got %d install/uninstall calls; want 0", n)
	}
	if len(r.cmds) != 2 {
		t.Errorf("Got %d command invocations; want 2", len(r.cmds))
	}
}

func TestRun_InstallFailureReleasesEarlierPackages(t *testing.T) {
	a, d, r := newWebViewAdapter(t)
	d.failInstalls = map[string]error{"/out/provider.apk": errors.New("install broken")}

	code, err := a.Run(context.Background())
	if err == nil {
		t.Fatal("Run unexpectedly succeeded with a failing install")
	}
	if code != 1 {
		t.Errorf("Run returned code %d; want 1", code)
	}
	if !strings.Contains(err.Error(), "install broken") {
		t.Errorf("Run returned %q; want the install error", err)
	}

	want := [][]string{
		{"install", "/out/shell.apk"},
		{"shell", "dumpsys", "webviewupdate"},
		{"install", "/out/provider.apk"},
		{"uninstall", "org.chromium.webview_shell"},
	}
	if diff := cmp.Diff(d.calls, want); diff != "" {
		t.Errorf("Device call sequence mismatch (-got +want):\n%s", diff)
	}
	if len(r.cmds) != 0 {
		t.Errorf("Got %d command invocations; want 0", len(r.cmds))
	}
}

func TestRun_MetadataBuilderArgs(t *testing.T) {
	for _, tc := range []struct {
		name    string
		product Product
		args    []string
		want    []string
	}{
		{
			name:    "weblayer with extra expectations",
			product: AndroidWebLayer,
			args: []string{
				"-webdriver-binary", "/out/chromedriver",
				"-additional-expectations", "/tmp/extra.txt",
			},
			want: []string{
				"vpython3",
				"/src/third_party/blink/tools/build_wpt_metadata.py",
				"--android-product", "android_weblayer",
				"--metadata-output-dir", "<metadata>",
				"--additional-expectations", "/src/third_party/blink/web_tests/android/AndroidDisabledTests",
				"--use-subtest-results",
				"--additional-expectations=/tmp/extra.txt",
				"--additional-expectations", "/src/third_party/blink/web_tests/android/WeblayerWPTOverrideExpectations",
			},
		},
		{
			name:    "webview without browser specific expectations",
			product: AndroidWebView,
			args: []string{
				"-webdriver-binary", "/out/chromedriver",
				"-ignore-browser-specific-expectations",
			},
			want: []string{
				"vpython3",
				"/src/third_party/blink/tools/build_wpt_metadata.py",
				"--android-product", "android_webview",
				"--metadata-output-dir", "<metadata>",
				"--additional-expectations", "/src/third_party/blink/web_tests/android/AndroidDisabledTests",
				"--use-subtest-results",
			},
		},
		{
			name:    "chrome without default expectations",
			product: ChromeAndroid,
			args: []string{
				"-webdriver-binary", "/out/chromedriver",
				"-chrome-package-name", "com.android.chrome",
				"-ignore-default-expectations",
			},
			want: []string{
				"vpython3",
				"/src/third_party/blink/tools/build_wpt_metadata.py",
				"--android-product", "chrome_android",
				"--metadata-output-dir", "<metadata>",
				"--additional-expectations", "/src/third_party/blink/web_tests/android/AndroidDisabledTests",
				"--use-subtest-results",
				"--ignore-default-expectations",
				"--additional-expectations", "/src/third_party/blink/web_tests/android/ChromeWPTOverrideExpectations",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestAdapter(t, tc.product, tc.args, nil)
			r := &fakeRunner{}
			a.runCmd = r.run

			if code, err := a.Run(context.Background()); err != nil || code != 0 {
				t.Fatalf("Run = (%d, %v); want (0, nil)", code, err)
			}
			if len(r.cmds) == 0 || !isMetadataCmd(r.cmds[0][1:]) {
				t.Fatalf("First invocation is not the metadata builder: %v", r.cmds)
			}

			got := append([]string(nil), r.cmds[0]...)
			for i, s := range got {
				if s == "--metadata-output-dir" && i+1 < len(got) {
					if got[i+1] == "" {
						t.Error("Metadata builder invoked with an empty output dir")
					}
					got[i+1] = "<metadata>"
				}
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Metadata builder args mismatch (-got +want):\n%s", diff)
			}
		})
	}
}
