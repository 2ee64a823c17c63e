// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

// HTTP API for quota reporting and reconciliation, MUNGE authenticated
package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli"
)

func init() {
	viper.SetConfigName("qsync")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/qsync/")
	viper.SetDefault("backend", "system")
	viper.SetDefault("enable_cache", false)
	viper.SetDefault("redis", ":6379")
	viper.SetDefault("cache_expire", 500)
}

func main() {
	app := cli.NewApp()
	app.Name = "qsync-server"
	app.Authors = []cli.Author{cli.Author{Name: "Peter Hudec", Email: "peter.hudec@securcom.me"}}
	app.Usage = "qsync-server"
	app.Version = "0.1.2"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "conf,c", Usage: "Path to conf file"},
		&cli.BoolFlag{Name: "debug,d", Usage: "Print debug messages"},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logrus.SetLevel(logrus.InfoLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}

		conf := c.GlobalString("conf")
		if len(conf) > 0 {
			viper.SetConfigFile(conf)
		}

		err := viper.ReadInConfig()
		if err != nil {
			return fmt.Errorf("Failed reading config file - %s", err)
		}

		return nil
	}
	app.Action = func(c *cli.Context) {
		if err := RunServer(); err != nil {
			logrus.Fatal(err)
		}
	}

	app.RunAndExitOnError()
}
