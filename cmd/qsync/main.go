// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

// report and reconcile disk quotas for a single user or group
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli"
)

func init() {
	viper.SetConfigName("qsync")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/qsync/")

	viper.SetDefault("backend", "system")
	viper.SetDefault("redis", ":6379")
	viper.SetDefault("cache_expire", 500)
}

func main() {
	app := cli.NewApp()
	app.Name = "qsync"
	app.Authors = []cli.Author{cli.Author{Name: "Peter Hudec", Email: "peter.hudec@securcom.me"}}
	app.Usage = "converges a user's or group's disk quota on one filesystem to a desired state"
	app.Version = "0.1.2"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "conf,c", Usage: "Path to conf file"},
		&cli.BoolFlag{Name: "debug,d", Usage: "Print debug messages"},
		&cli.StringFlag{Name: "type,t", Value: "user", Usage: "Subject type: user or group"},
		&cli.StringFlag{Name: "name,n", Usage: "User or group name (required)"},
		&cli.StringFlag{Name: "filesystem,f", Usage: "Filesystem the quota applies to (required)"},
		&cli.StringFlag{Name: "blocks-soft", Usage: "Desired soft block limit (e.g. 500M, 10G)"},
		&cli.StringFlag{Name: "blocks-hard", Usage: "Desired hard block limit"},
		&cli.StringFlag{Name: "inodes-soft", Usage: "Desired soft inode limit (e.g. 100K)"},
		&cli.StringFlag{Name: "inodes-hard", Usage: "Desired hard inode limit"},
		&cli.BoolFlag{Name: "check", Usage: "Compute the decision but apply nothing"},
		&cli.StringFlag{Name: "backend,b", Usage: "Tool family: system or quotatool"},
		&cli.BoolFlag{Name: "pretty", Usage: "Print a human readable table instead of JSON"},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}

		conf := c.GlobalString("conf")
		if len(conf) > 0 {
			viper.SetConfigFile(conf)
		}

		viper.ReadInConfig()

		return nil
	}
	app.Action = func(c *cli.Context) {
		client := &QuotaClient{
			Type:       c.String("type"),
			Name:       c.String("name"),
			Filesystem: c.String("filesystem"),
			BlocksSoft: c.String("blocks-soft"),
			BlocksHard: c.String("blocks-hard"),
			InodesSoft: c.String("inodes-soft"),
			InodesHard: c.String("inodes-hard"),
			Check:      c.Bool("check"),
			Backend:    c.String("backend"),
			Pretty:     c.Bool("pretty")}

		client.Run()
	}

	app.RunAndExitOnError()
}
