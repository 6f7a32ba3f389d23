package app

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "app")
