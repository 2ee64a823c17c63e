// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net/http"
	group "os/user"

	"github.com/labstack/echo/v4"
	"github.com/securcom/qsync"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Handler struct {
	backend qsync.Backend
	cache   *qsync.Cache
}

func NewHandler() (*Handler, error) {
	backend, err := qsync.NewBackend(viper.GetString("backend"), nil)
	if err != nil {
		return nil, err
	}

	h := &Handler{backend: backend}
	if viper.GetBool("enable_cache") {
		h.cache = &qsync.Cache{Expire: viper.GetInt("cache_expire")}
	}

	return h, nil
}

func (h *Handler) SetupRoutes(e *echo.Echo) {
	e.GET("/quota", MungeAuthRequired(h.Quota)).Name = "quota"
	e.POST("/quota", MungeAuthRequired(h.Reconcile)).Name = "reconcile"
}

// reportResult flattens a quota report into the result shape of a
// report-only run.
func reportResult(report *qsync.Report) *qsync.Result {
	return &qsync.Result{
		Message:       qsync.MSG_REPORTED,
		BlocksCurrent: report.Blocks.Current,
		BlocksSoft:    report.Blocks.Soft,
		BlocksHard:    report.Blocks.Hard,
		BlocksGrace:   report.Blocks.Grace,
		InodesCurrent: report.Inodes.Current,
		InodesSoft:    report.Inodes.Soft,
		InodesHard:    report.Inodes.Hard,
		InodesGrace:   report.Inodes.Grace,
	}
}

// canQuery reports whether the authenticated user may see the quota
// entry for the requested subject. Users see their own entry and the
// entries of groups they belong to; anything else needs admin.
func canQuery(user *User, subject qsync.Subject) bool {
	if user.IsAdmin() {
		return true
	}
	if subject.Type == qsync.SUBJECT_USER {
		return subject.Name == user.UID
	}

	return user.HasGroup(subject.Name)
}

// Quota runs a report-only reconciliation and returns the flattened
// result. When caching is enabled the last parsed report is served from
// redis and refreshed after a live query.
func (h *Handler) Quota(c echo.Context) error {
	u := c.Get("user")
	if u == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get user")
	}
	user := u.(*User)

	req := &qsync.Request{
		Type:       c.QueryParam("type"),
		Name:       c.QueryParam("name"),
		Filesystem: c.QueryParam("filesystem"),
	}
	if req.Type == "" {
		req.Type = qsync.SUBJECT_USER
	}
	if req.Name == "" {
		req.Name = user.UID
	}
	if req.Filesystem == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing filesystem")
	}
	if req.Type == qsync.SUBJECT_GROUP {
		if _, err := group.LookupGroup(req.Name); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, nil)
		}
	}

	if !canQuery(user, req.Subject()) {
		return echo.ErrUnauthorized
	}

	log.Infof("User %s requesting quota for %s %s on %s", user.UID, req.Type, req.Name, req.Filesystem)

	if h.cache != nil {
		report, err := h.cache.GetReport(req.Subject(), req.Filesystem)
		if err == nil {
			// cached reports serve the same flattened shape as a
			// live report-only run
			return c.JSON(http.StatusOK, reportResult(report))
		}
		if !errors.Is(err, qsync.ErrNotFound) {
			log.WithFields(log.Fields{
				"err":  err,
				"name": req.Name,
			}).Warn("Report cache lookup failed, querying live")
		}
	}

	result, err := qsync.NewReconciler(h.backend, h.backend).Run(req)
	if err != nil {
		log.WithFields(log.Fields{
			"err":        err,
			"name":       req.Name,
			"filesystem": req.Filesystem,
		}).Error("Failed to query quota")

		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get quota")
	}

	if h.cache != nil {
		report := &qsync.Report{
			Blocks: qsync.QuotaRecord{
				Current: result.BlocksCurrent,
				Soft:    result.BlocksSoft,
				Hard:    result.BlocksHard,
				Grace:   result.BlocksGrace,
			},
			Inodes: qsync.QuotaRecord{
				Current: result.InodesCurrent,
				Soft:    result.InodesSoft,
				Hard:    result.InodesHard,
				Grace:   result.InodesGrace,
			},
		}

		if err := h.cache.SetReport(req.Subject(), req.Filesystem, report); err != nil {
			log.WithFields(log.Fields{
				"err":  err,
				"name": req.Name,
			}).Warn("Failed to update report cache")
		}
	}

	return c.JSON(http.StatusOK, result)
}

// Reconcile applies desired limits from the request body. Mutating
// quota state is admin only.
func (h *Handler) Reconcile(c echo.Context) error {
	u := c.Get("user")
	if u == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get user")
	}
	user := u.(*User)

	if !user.IsAdmin() {
		return echo.ErrUnauthorized
	}

	req := &qsync.Request{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" || req.Filesystem == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing name or filesystem")
	}

	log.Infof("User %s reconciling quota for %s %s on %s", user.UID, req.Type, req.Name, req.Filesystem)

	result, err := qsync.NewReconciler(h.backend, h.backend).Run(req)
	if err != nil {
		var exprErr *qsync.ExprError
		if errors.As(err, &exprErr) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		log.WithFields(log.Fields{
			"err":        err,
			"name":       req.Name,
			"filesystem": req.Filesystem,
		}).Error("Failed to reconcile quota")

		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reconcile quota")
	}

	return c.JSON(http.StatusOK, result)
}
