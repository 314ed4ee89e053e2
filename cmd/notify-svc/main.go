package main

import (
	"github.com/corray333/backend-labs/grocery/internal/app/notify"
	"github.com/corray333/backend-labs/grocery/internal/config"
)

func main() {
	config.MustInit("notify-svc")
	notify.MustNewApp().Run()
}
