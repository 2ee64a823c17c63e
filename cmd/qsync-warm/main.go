// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

// pre-query configured subjects and fill the redis report cache
package main

import (
	"fmt"

	"github.com/securcom/qsync"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	conf = kingpin.Flag(
		"conf",
		"Path to conf file",
	).Envar("QSYNC_CONF").String()

	backendName = kingpin.Flag(
		"backend",
		"Tool family: system or quotatool",
	).Envar("QSYNC_BACKEND").String()

	expire = kingpin.Flag(
		"expire",
		"Cache expire time",
	).Default("500").Envar("QSYNC_EXPIRE").Int()

	debug = kingpin.Flag("debug", "enable debug mode").Default("false").Bool()
	noop  = kingpin.Flag("noop", "Dump quota reports and exit").Default("false").Bool()
)

func init() {
	viper.SetConfigName("qsync")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/qsync/")
	viper.SetDefault("backend", "system")
	viper.SetDefault("redis", ":6379")
}

func subjects() []qsync.Subject {
	var subs []qsync.Subject
	for _, name := range viper.GetStringSlice("warm.users") {
		subs = append(subs, qsync.Subject{Type: qsync.SUBJECT_USER, Name: name})
	}
	for _, name := range viper.GetStringSlice("warm.groups") {
		subs = append(subs, qsync.Subject{Type: qsync.SUBJECT_GROUP, Name: name})
	}

	return subs
}

func main() {
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *conf != "" {
		viper.SetConfigFile(*conf)
	}
	viper.ReadInConfig()

	name := *backendName
	if name == "" {
		name = viper.GetString("backend")
	}

	backend, err := qsync.NewBackend(name, nil)
	if err != nil {
		log.Fatal(err)
	}

	filesystems := viper.GetStringSlice("warm.filesystems")
	if len(filesystems) == 0 {
		log.Fatal("No filesystems configured under warm.filesystems")
	}

	cache := &qsync.Cache{Expire: *expire}

	for _, subject := range subjects() {
		for _, fs := range filesystems {
			out, err := backend.Read(subject, fs)
			if err != nil {
				log.WithFields(log.Fields{
					"subject":    subject.Name,
					"filesystem": fs,
					"error":      err,
				}).Error("Failed to query quota report")
				continue
			}

			report, err := qsync.ParseReport(out, fs)
			if err != nil {
				log.WithFields(log.Fields{
					"subject":    subject.Name,
					"filesystem": fs,
					"error":      err,
				}).Error("Failed to parse quota report")
				continue
			}

			if *noop {
				fmt.Printf("%s %s %s: %+v\n", subject.Type, subject.Name, fs, report)
				continue
			}

			err = cache.SetReport(subject, fs, report)
			if err != nil {
				log.WithFields(log.Fields{
					"subject":    subject.Name,
					"filesystem": fs,
					"error":      err,
				}).Error("Failed to set quota report cache in redis")
			}
		}
	}
}
