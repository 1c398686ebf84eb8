// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package wpt runs the Web Platform Tests suite against Android browsers.
//
// The package implements the orchestration around the external runner: it
// installs the packages the selected browser configuration needs on the
// target device, builds browser-specific expectation metadata, assembles
// the runner's argument vector, delegates execution, and guarantees
// cleanup of installed packages and scratch directories however the run
// ends.
package wpt

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/apk"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/command"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/proc"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/scoped"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/timing"
)

// vpython is the interpreter both external tools run under; it carries the
// Python packages the runner needs, so no venv setup happens per run.
const vpython = "vpython3"

// Device is the part of the adb device surface the adapters drive. It is
// satisfied by *adb.Device.
type Device interface {
	Serial() string
	Install(ctx context.Context, apkPath string) error
	Uninstall(ctx context.Context, pkg string) error
	Shell(ctx context.Context, args ...string) (string, error)
}

// Options is the parsed command-line configuration for one run.
type Options struct {
	Target                            string
	WebdriverBinary                   string
	WPTPath                           string
	AdditionalExpectations            []string
	IgnoreDefaultExpectations         bool
	IgnoreBrowserSpecificExpectations bool
	TestType                          string
	Verbose                           int
	AvdConfig                         string
	EmulatorWindow                    bool

	// Variant-specific flags; only the selected variant registers its set.
	ChromeAPK          string
	ChromePackageName  string
	SystemWebViewShell string
	WebViewProvider    string
	WebLayerShell      string
	WebLayerSupport    string
}

// packageNameFunc resolves the package name of an APK file on the host.
type packageNameFunc func(ctx context.Context, apkPath string) (string, error)

// runFunc runs an external command and reports its exit code.
type runFunc func(ctx context.Context, name string, args ...string) (int, error)

// variant is the per-product capability set: extra flag surface, package
// install set, browser-specific expectations file, and argument tail.
type variant interface {
	registerFlags(fs *flag.FlagSet)
	validate() error
	installs(ctx context.Context, st *scoped.Stack) error
	expectationsPath() string
	tailArgs(ctx context.Context) ([]string, error)
}

// Adapter drives one run of the suite for a particular product. It borrows
// the target device for the duration of the run and must not outlive it.
type Adapter struct {
	product  Product
	device   Device
	checkout Checkout
	opts     Options
	variant  variant

	// wptArgs collects pass-through tokens directed at the runner;
	// binaryArgs collects tokens directed at the browser binary under
	// test. Both are per-instance state, so two adapters in the same
	// process never observe each other's accumulated flags.
	wptArgs    *ArgSet
	binaryArgs *ArgSet

	metadataDir string

	packageName packageNameFunc
	runCmd      runFunc
}

// NewAdapter returns the adapter implementing product, testing against dev
// inside checkout.
func NewAdapter(product Product, dev Device, checkout Checkout) *Adapter {
	a := &Adapter{
		product:     product,
		device:      dev,
		checkout:    checkout,
		wptArgs:     NewArgSet(),
		binaryArgs:  NewArgSet(),
		packageName: apk.PackageName,
		runCmd:      proc.Run,
	}
	switch product {
	case AndroidWebLayer:
		a.variant = &webLayerVariant{a}
	case AndroidWebView:
		a.variant = &webViewVariant{adapter: a}
	default:
		a.variant = &chromeVariant{a}
	}
	return a
}

// ParseArgs parses the full command-line surface for the selected product
// and validates required options. Unknown flags are errors here, unlike in
// the orchestrator's first-pass product scan.
func (a *Adapter) ParseArgs(args []string) error {
	fs := flag.NewFlagSet("run_android_wpt", flag.ContinueOnError)
	a.registerCommonFlags(fs)
	a.variant.registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errors.Errorf("unexpected positional arguments: %v", fs.Args())
	}
	if a.opts.WebdriverBinary == "" {
		return errors.New("the -webdriver-binary command line argument is required")
	}
	return a.variant.validate()
}

func (a *Adapter) registerCommonFlags(fs *flag.FlagSet) {
	pf := command.NewEnumFlag(productEnumValues(), func(v string) { a.product = Product(v) }, string(a.product))
	fs.Var(pf, "product", fmt.Sprintf("Browser product to test (%s).", pf.QuotedValues()))

	fs.StringVar(&a.opts.Target, "target", "Release", "Target build subdirectory under out/.")
	fs.StringVar(&a.opts.Target, "t", "Release", "Alias for -target.")
	fs.StringVar(&a.opts.WebdriverBinary, "webdriver-binary", "",
		"Path of the webdriver binary. It needs to have the same major version as the apk (required).")
	fs.StringVar(&a.opts.WPTPath, "wpt-path", a.checkout.DefaultWPT(),
		"Path of the WPT runner to use (therefore tests). Defaults to the revision rolled into Chromium.")

	ae := command.RepeatedFlag(func(v string) error {
		a.opts.AdditionalExpectations = append(a.opts.AdditionalExpectations, v)
		return nil
	})
	fs.Var(&ae, "additional-expectations", "Path to an additional test expectations file (repeatable).")

	fs.BoolVar(&a.opts.IgnoreDefaultExpectations, "ignore-default-expectations", false,
		"Do not use the default set of TestExpectations files.")
	fs.BoolVar(&a.opts.IgnoreBrowserSpecificExpectations, "ignore-browser-specific-expectations", false,
		"Ignore browser specific expectation files.")
	fs.StringVar(&a.opts.TestType, "test-type", "testharness",
		"Specify to experiment with other test types. Currently only the default is expected to work.")

	vf := command.BoolFuncFlag(func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		if b {
			a.opts.Verbose++
		}
		return nil
	})
	fs.Var(&vf, "verbose", "Increase verbosity (repeatable).")
	fs.Var(&vf, "v", "Alias for -verbose.")

	fs.StringVar(&a.opts.AvdConfig, "avd-config", "",
		"Path to the AVD config YAML describing the emulator to boot.")
	fs.BoolVar(&a.opts.EmulatorWindow, "emulator-window", false,
		"Enable graphical window display on the emulator.")

	registerPassThrough(fs, a.wptArgs, "repeat", "Number of times to run the tests.")
	registerPassThrough(fs, a.wptArgs, "include", "Test(s) to run, defaults to run all tests.")
	registerPassThrough(fs, a.wptArgs, "include-file", "A file listing test(s) to run.")
	registerPassThroughBare(fs, a.wptArgs, "list-tests",
		"Don't run any tests, just print out a list of tests that would be run.")
	registerPassThrough(fs, a.wptArgs, "webdriver-arg", "WebDriver args.")
	registerPassThrough(fs, a.wptArgs, "log-wptreport", "Log wptreport with subtest details.")
	registerPassThrough(fs, a.wptArgs, "log-raw", "Log raw report.")
	registerPassThrough(fs, a.wptArgs, "log-html", "Log html report.")
	registerPassThrough(fs, a.wptArgs, "log-xunit", "Log xunit report.")

	registerPassThrough(fs, a.binaryArgs, "enable-features", "Chromium features to enable during testing.")
	registerPassThrough(fs, a.binaryArgs, "disable-features", "Chromium features to disable during testing.")
	registerPassThrough(fs, a.binaryArgs, "disable-field-trial-config", "Disable test trials for Chromium features.")
	registerPassThrough(fs, a.binaryArgs, "force-fieldtrials", "Force trials for Chromium features.")
	registerPassThrough(fs, a.binaryArgs, "force-fieldtrial-params", "Force trial params for Chromium features.")
}

// RunnerArgs assembles the argument vector for the external runner,
// starting with the runner script path. The order is fixed; the runner's
// own argument parsing depends on the positional product tag at the end.
func (a *Adapter) RunnerArgs(ctx context.Context) ([]string, error) {
	args := []string{
		a.opts.WPTPath,
		// Unexpected passes are not treated as errors on Chromium CI.
		"--no-fail-on-unexpected-pass",
		"--venv=" + string(a.checkout),
		"--skip-venv-setup",
		"run",
		"--tests=" + a.checkout.TestsRoot(),
		"--test-type=" + a.opts.TestType,
		"--device-serial", a.device.Serial(),
		"--webdriver-binary", a.opts.WebdriverBinary,
		"--headless",
		"--no-pause-after-test",
		"--no-capture-stdio",
		"--no-manifest-download",
		"--binary-arg=--enable-blink-features=MojoJS,MojoJSTest",
		"--binary-arg=--enable-blink-test-features",
		"--binary-arg=--disable-field-trial-config",
		"--enable-mojojs",
		"--mojojs-path=" + a.checkout.MojoJSDir(a.opts.Target),
	}
	if a.metadataDir != "" {
		args = append(args, "--metadata", a.metadataDir)
	}
	if a.opts.Verbose >= 3 {
		args = append(args, "--log-mach=-", "--log-mach-level=debug", "--log-mach-verbose")
	}
	if a.opts.Verbose >= 4 {
		args = append(args, "--webdriver-arg=--verbose", `--webdriver-arg="--log-path=-"`)
	}
	// TODO: Forward the accumulated browser-directed tokens by wrapping
	// each one in --binary-arg; today only runner-directed pass-through
	// flags reach the invocation.
	args = append(args, a.wptArgs.Args()...)
	tail, err := a.variant.tailArgs(ctx)
	if err != nil {
		return nil, err
	}
	return append(args, tail...), nil
}

// Run performs one full run: package installs, metadata build, runner
// invocation. The returned status is the process exit code to report: the
// runner's own exit code normally, or the metadata builder's exit code if
// that step failed, in which case the runner is never invoked. Installed
// packages are released on every exit path.
func (a *Adapter) Run(ctx context.Context) (ret int, retErr error) {
	tmpDir, err := ioutil.TempDir("", "wpt_run_")
	if err != nil {
		return 1, errors.Wrap(err, "failed to create temp dir")
	}
	a.metadataDir = filepath.Join(tmpDir, "metadata_dir")
	defer func() {
		os.RemoveAll(tmpDir)
		a.metadataDir = ""
	}()

	var st scoped.Stack
	defer func() {
		if err := st.Release(ctx); err != nil && retErr == nil {
			ret, retErr = 1, errors.Wrap(err, "failed to release installed packages")
		}
	}()
	if err := a.installPackages(ctx, &st); err != nil {
		return 1, err
	}

	code, err := a.buildMetadata(ctx)
	if err != nil {
		return 1, err
	}
	if code != 0 {
		logging.Infof(ctx, "Metadata builder exited with code %d", code)
		return code, nil
	}
	// The runner fails on a missing metadata path, so make sure the
	// directory exists even when the builder produced no files.
	if _, err := os.Stat(a.metadataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.metadataDir, 0755); err != nil {
			return 1, errors.Wrap(err, "failed to create metadata dir")
		}
	}

	args, err := a.RunnerArgs(ctx)
	if err != nil {
		return 1, err
	}
	ctx, stg := timing.Start(ctx, "run_tests")
	defer stg.End()
	return a.runCmd(ctx, vpython, args...)
}

func (a *Adapter) installPackages(ctx context.Context, st *scoped.Stack) error {
	ctx, stg := timing.Start(ctx, "install_packages")
	defer stg.End()
	return a.variant.installs(ctx, st)
}
