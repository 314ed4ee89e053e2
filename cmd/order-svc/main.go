package main

import (
	"github.com/corray333/backend-labs/grocery/internal/app/order"
	"github.com/corray333/backend-labs/grocery/internal/config"
)

func main() {
	config.MustInit("order-svc")
	order.MustNewApp().Run()
}
