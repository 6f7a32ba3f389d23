package flowsim

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "flowsim")
