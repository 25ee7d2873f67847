package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/crowdwatch/cmd"
	"github.com/nvr-ai/crowdwatch/pipeline"
)

func main() {
	if err := cmd.Execute(); err != nil {
		entry := logrus.WithError(err)
		var failure *pipeline.Failure
		if errors.As(err, &failure) {
			entry = entry.WithField("kind", failure.Kind.String())
		}
		entry.Error("crowdwatch failed")
		os.Exit(1)
	}
}
