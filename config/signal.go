package config

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sat20-labs/sendmany/common"
)

var (
	SigInt          chan os.Signal
	sigIntFuncList  = []func(){}
	releaseFuncList = []func(){}
	sigMutex        sync.Mutex
)

// InitSigInt runs the registered callbacks on the first SIGINT or SIGTERM
// and forces an exit on the third.
func InitSigInt() {
	count := 0
	SigInt = make(chan os.Signal, 100)
	signal.Notify(SigInt, os.Interrupt, syscall.SIGTERM)
	go func() {
		for {
			<-SigInt
			count++
			common.Log.Infof("Received SIGINT (CTRL+C), count %d, 3 times will force exit", count)
			if count >= 3 {
				ReleaseRes()
				os.Exit(1)
			} else if count == 1 {
				sigMutex.Lock()
				funcs := append([]func(){}, sigIntFuncList...)
				sigMutex.Unlock()
				for index := range funcs {
					go funcs[index]()
				}
			}
		}
	}()
}

func RegistSigIntFunc(callback func()) {
	sigMutex.Lock()
	defer sigMutex.Unlock()
	sigIntFuncList = append(sigIntFuncList, callback)
}

// RegistReleaseFunc adds a callback run by ReleaseRes, last registered first.
func RegistReleaseFunc(callback func()) {
	sigMutex.Lock()
	defer sigMutex.Unlock()
	releaseFuncList = append(releaseFuncList, callback)
}

func ReleaseRes() {
	sigMutex.Lock()
	funcs := releaseFuncList
	releaseFuncList = nil
	sigMutex.Unlock()
	for i := len(funcs) - 1; i >= 0; i-- {
		funcs[i]()
	}
}
