package mainboilerplate

import (
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// RegisterSignalHandlers registers signal handlers for debugging.
//
// SIGQUIT dumps a one-time goroutine trace to stderr.
// SIGUSR2 toggles the debug log level.
func RegisterSignalHandlers() {
	var ch = make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGQUIT, syscall.SIGUSR2)

	go func() {
		var toggled bool
		var previous log.Level

		for sig := range ch {
			switch sig {
			case syscall.SIGQUIT:
				_ = pprof.Lookup("goroutine").WriteTo(os.Stderr, 1)
			case syscall.SIGUSR2:
				if toggled {
					log.SetLevel(previous)
				} else {
					previous = log.GetLevel()
					log.SetLevel(log.DebugLevel)
				}
				toggled = !toggled
				log.WithField("level", log.GetLevel()).Info("toggled log level")
			}
		}
	}()
}
