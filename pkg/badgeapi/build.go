package badgeapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iver-wharf/wharf-core/pkg/ginutil"
	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
)

type buildModule struct {
	store buildstore.Store
}

func (m buildModule) register(g *gin.RouterGroup) {
	g.GET("/job/:job/build", m.listBuildsHandler)
	g.GET("/job/:job/build/:number", m.getBuildHandler)
	g.GET("/job/:job/build/:number/badges", m.listBadgesHandler)
	g.GET("/job/:job/build/:number/summaries", m.listSummariesHandler)
	g.GET("/job/:job/build/:number/log", m.getLogHandler)
}

// BuildList is the response from listing the builds of a job.
type BuildList struct {
	Job     string `json:"job" example:"my-job"`
	Numbers []uint `json:"numbers"`
}

// listBuildsHandler godoc
// @id listBuilds
// @summary List the build numbers of a job
// @tags build
// @produce json
// @param job path string true "Job name, path escaped"
// @success 200 {object} BuildList
// @failure 400 {object} problem.Response "Bad request"
// @router /api/job/{job}/build [get]
func (m buildModule) listBuildsHandler(c *gin.Context) {
	job, ok := requireJob(c)
	if !ok {
		return
	}
	numbers, err := m.store.Numbers(job)
	if err != nil {
		ginutil.WriteDBReadError(c, err, fmt.Sprintf("Failed to list builds of job %q.", job))
		return
	}
	if numbers == nil {
		numbers = []uint{}
	}
	c.JSON(http.StatusOK, BuildList{Job: job, Numbers: numbers})
}

// getBuildHandler godoc
// @id getBuild
// @summary Get a build, including its result and actions
// @tags build
// @produce json
// @param job path string true "Job name, path escaped"
// @param number path uint true "Build number" minimum(1)
// @success 200 {object} build.Build
// @failure 404 {object} problem.Response "Build not found"
// @router /api/job/{job}/build/{number} [get]
func (m buildModule) getBuildHandler(c *gin.Context) {
	b, ok := m.loadBuild(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

// listBadgesHandler godoc
// @id listBadges
// @summary List the badges of a build
// @tags build
// @produce json
// @param job path string true "Job name, path escaped"
// @param number path uint true "Build number" minimum(1)
// @success 200 {object} []badge.Badge
// @failure 404 {object} problem.Response "Build not found"
// @router /api/job/{job}/build/{number}/badges [get]
func (m buildModule) listBadgesHandler(c *gin.Context) {
	b, ok := m.loadBuild(c)
	if !ok {
		return
	}
	badges := b.Badges()
	if badges == nil {
		badges = []*badge.Badge{}
	}
	c.JSON(http.StatusOK, badges)
}

// listSummariesHandler godoc
// @id listSummaries
// @summary List the summaries of a build
// @tags build
// @produce json
// @param job path string true "Job name, path escaped"
// @param number path uint true "Build number" minimum(1)
// @success 200 {object} []badge.Summary
// @failure 404 {object} problem.Response "Build not found"
// @router /api/job/{job}/build/{number}/summaries [get]
func (m buildModule) listSummariesHandler(c *gin.Context) {
	b, ok := m.loadBuild(c)
	if !ok {
		return
	}
	summaries := b.Summaries()
	if summaries == nil {
		summaries = []*badge.Summary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// getLogHandler godoc
// @id getBuildLog
// @summary Get the log of a build as plain text
// @tags build
// @produce plain
// @param job path string true "Job name, path escaped"
// @param number path uint true "Build number" minimum(1)
// @success 200 {string} string "Build log"
// @failure 404 {object} problem.Response "Build not found"
// @router /api/job/{job}/build/{number}/log [get]
func (m buildModule) getLogHandler(c *gin.Context) {
	b, ok := m.loadBuild(c)
	if !ok {
		return
	}
	r, err := m.store.OpenLog(b)
	if err != nil {
		ginutil.WriteDBReadError(c, err, fmt.Sprintf("Failed to open log of build %s.", b))
		return
	}
	defer r.Close()
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, r); err != nil {
		log.Warn().
			WithStringer("build", b).
			WithError(err).
			Message("Failed to write build log to response.")
	}
}

func (m buildModule) loadBuild(c *gin.Context) (*build.Build, bool) {
	job, ok := requireJob(c)
	if !ok {
		return nil, false
	}
	number, ok := ginutil.ParseParamUint(c, "number")
	if !ok {
		return nil, false
	}
	b, err := m.store.Load(job, number)
	if errors.Is(err, buildstore.ErrNotFound) {
		ginutil.WriteDBNotFound(c, fmt.Sprintf("Build %s#%d not found.", job, number))
		return nil, false
	}
	if err != nil {
		ginutil.WriteDBReadError(c, err, fmt.Sprintf("Failed to load build %s#%d.", job, number))
		return nil, false
	}
	return b, true
}

func requireJob(c *gin.Context) (string, bool) {
	job, ok := ginutil.RequireParamString(c, "job")
	if !ok {
		return "", false
	}
	if err := buildstore.ValidateJob(job); err != nil {
		ginutil.WriteInvalidParamError(c, err, "job", fmt.Sprintf("Invalid job name %q.", job))
		return "", false
	}
	return job, true
}
