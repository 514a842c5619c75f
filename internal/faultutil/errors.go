package faultutil

import "errors"

var errInstallFailed = errors.New("faultutil: sigaction install failed")
