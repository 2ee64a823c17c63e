// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

package qsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gomodule/redigo/redis"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	ErrNotFound = errors.New("not found")
)

// Cache stores parsed quota reports in redis so report-only queries can
// be served without spawning the quota tools. Keys are
// <filesystem>:<TYPE>:<name>.
type Cache struct {
	Expire int
}

func cacheKey(subject Subject, filesystem string) string {
	return fmt.Sprintf("%s:%s:%s", filesystem, strings.ToUpper(subject.Type), subject.Name)
}

func redisDial() (redis.Conn, error) {
	conn, err := redis.Dial("tcp", viper.GetString("redis"))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err.Error(),
		}).Error("Failed connecting to redis server")
		return nil, err
	}

	return conn, err
}

func (c *Cache) GetReport(subject Subject, filesystem string) (*Report, error) {
	conn, err := redisDial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	key := cacheKey(subject, filesystem)

	rawJson, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrNotFound
		}

		logrus.WithFields(logrus.Fields{
			"err": err.Error(),
			"key": key,
		}).Error("Failed to fetch report from cache")
		return nil, err
	}

	report := &Report{}
	err = json.Unmarshal(rawJson, report)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err.Error(),
			"key": key,
		}).Error("Failed to unmarshal report")
		return nil, err
	}

	return report, nil
}

func (c *Cache) SetReport(subject Subject, filesystem string, report *Report) error {
	conn, err := redisDial()
	if err != nil {
		return err
	}
	defer conn.Close()

	key := cacheKey(subject, filesystem)

	out, err := json.Marshal(report)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err.Error(),
			"key": key,
		}).Error("Failed to marshal report")
		return err
	}

	_, err = conn.Do("SETEX", key, c.Expire, out)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err.Error(),
			"key": key,
		}).Error("Failed to set cache")
		return err
	}

	return nil
}
