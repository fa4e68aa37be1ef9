package main

import "github.com/tm-acme-shop/acme-shop-cart-calculator/internal/cli"

var version = "dev"

func main() {
	cli.Exit(version)
}
