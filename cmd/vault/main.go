package main

import (
	"fmt"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	appName = "vault"

	metricsProviderMetadataKey = "metrics_provider"
	metricsShutdownTimeout     = 5 * time.Second
)

var (
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable debug logging, including program logs",
	}
	newRelicLicenseKeyFlag = &cli.StringFlag{
		Name:    "new-relic-license-key",
		Usage:   "report metrics to New Relic under the given license key",
		EnvVars: []string{"NEW_RELIC_LICENSE_KEY"},
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  appName,
		Usage: "Encode, decode and simulate vault program instructions",
		Flags: []cli.Flag{
			verboseFlag,
			newRelicLicenseKeyFlag,
		},
		Commands: []*cli.Command{
			&DecodeCmd,
			&EncodeCmd,
			&SimulateCmd,
		},
		Before: setup,
		After:  teardown,
	}
}

func setup(c *cli.Context) error {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.SetOutput(c.App.ErrWriter)
	if c.Bool(verboseFlag.Name) {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	licenseKey := c.String(newRelicLicenseKeyFlag.Name)
	if len(licenseKey) == 0 {
		return nil
	}

	nr, err := newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(appName),
		newrelic.ConfigLicense(licenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return errors.Wrap(err, "error connecting to new relic")
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[metricsProviderMetadataKey] = nr
	return nil
}

func teardown(c *cli.Context) error {
	if nr := metricsProvider(c); nr != nil {
		nr.Shutdown(metricsShutdownTimeout)
	}
	return nil
}

func metricsProvider(c *cli.Context) *newrelic.Application {
	nr, _ := c.App.Metadata[metricsProviderMetadataKey].(*newrelic.Application)
	return nr
}
