package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/sirupsen/logrus"
)

// StartUtilities spins off the services associated with debug mode.
func StartUtilities(logger *logrus.Logger, pprofPort int) {
	startPprofServer(logger, pprofPort)
}

// This function starts the default pprof HTTP server that can be accessed via localhost
// to get runtime information about the server. See https://golang.org/pkg/net/http/pprof/
func startPprofServer(logger *logrus.Logger, port int) {
	listenerAddr := fmt.Sprintf("localhost:%d", port)
	logger.Infof("starting pprof server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Infof("error starting pprof server: %s", err)
		}
	}()
}
