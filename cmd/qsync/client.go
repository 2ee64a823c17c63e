// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/securcom/qsync"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	TABLE_FORMAT = "%-10s%14s%14s%14s%10s%10s\n"
)

var (
	cyan   = color.New(color.FgCyan)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

type QuotaClient struct {
	Type       string
	Name       string
	Filesystem string
	BlocksSoft string
	BlocksHard string
	InodesSoft string
	InodesHard string
	Check      bool
	Backend    string
	Pretty     bool
}

func (c *QuotaClient) backendName() string {
	if len(c.Backend) > 0 {
		return c.Backend
	}

	return viper.GetString("backend")
}

func (c *QuotaClient) runner() (qsync.Runner, error) {
	host := viper.GetString("ssh.host")
	if len(host) == 0 {
		return qsync.LocalRunner{}, nil
	}

	user := viper.GetString("ssh.user")
	if len(user) == 0 {
		return nil, fmt.Errorf("ssh host configured without ssh user")
	}

	return &qsync.SSHRunner{
		Host:     host,
		User:     user,
		Password: viper.GetString("ssh.password"),
		KeyFile:  viper.GetString("ssh.key"),
	}, nil
}

func (c *QuotaClient) printResult(result *qsync.Result) {
	if !c.Pretty {
		out, err := json.Marshal(result)
		if err != nil {
			logrus.Fatal("Failed to marshal result: ", err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("%s\n", result.Message)
	fmt.Printf(TABLE_FORMAT, "", "used", "soft", "hard", "grace", "changed")

	blocks := cyan
	if result.BlocksChanged {
		blocks = yellow
	} else if result.BlocksHard > 0 && result.BlocksCurrent > result.BlocksHard {
		blocks = red
	}
	blocks.Printf(TABLE_FORMAT,
		"blocks",
		humanize.Bytes(uint64(result.BlocksCurrent)*1024),
		humanize.Bytes(uint64(result.BlocksSoft)*1024),
		humanize.Bytes(uint64(result.BlocksHard)*1024),
		result.BlocksGrace,
		fmt.Sprintf("%v", result.BlocksChanged))

	inodes := cyan
	if result.InodesChanged {
		inodes = yellow
	} else if result.InodesHard > 0 && result.InodesCurrent > result.InodesHard {
		inodes = red
	}
	inodes.Printf(TABLE_FORMAT,
		"inodes",
		humanize.Comma(result.InodesCurrent),
		humanize.Comma(result.InodesSoft),
		humanize.Comma(result.InodesHard),
		result.InodesGrace,
		fmt.Sprintf("%v", result.InodesChanged))
}

func (c *QuotaClient) Run() {
	if len(c.Name) == 0 {
		logrus.Fatal("Please provide a user or group name")
	}
	if len(c.Filesystem) == 0 {
		logrus.Fatal("Please provide a filesystem")
	}
	if c.Type != qsync.SUBJECT_USER && c.Type != qsync.SUBJECT_GROUP {
		logrus.Fatal("Subject type must be user or group: ", c.Type)
	}

	runner, err := c.runner()
	if err != nil {
		logrus.Fatal(err)
	}

	backend, err := qsync.NewBackend(c.backendName(), runner)
	if err != nil {
		logrus.Fatal(err)
	}

	result, err := qsync.NewReconciler(backend, backend).Run(&qsync.Request{
		Type:       c.Type,
		Name:       c.Name,
		Filesystem: c.Filesystem,
		BlocksSoft: c.BlocksSoft,
		BlocksHard: c.BlocksHard,
		InodesSoft: c.InodesSoft,
		InodesHard: c.InodesHard,
		Check:      c.Check,
	})
	if err != nil {
		logrus.Fatal(err)
	}

	c.printResult(result)
}
