package report

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "report")
