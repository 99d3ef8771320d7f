package main

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/iver-wharf/wharf-postbuild/internal/errutil"
	"github.com/iver-wharf/wharf-postbuild/internal/pathutil"
	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
	"github.com/iver-wharf/wharf-postbuild/pkg/envvars"
	"github.com/iver-wharf/wharf-postbuild/pkg/jobrun"
	"github.com/iver-wharf/wharf-postbuild/pkg/poststep"
)

func openStore(cfg StoreConfig) (buildstore.Store, error) {
	switch cfg.Driver {
	case StoreDriverSQLite:
		path, err := pathutil.ExpandHome(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Debug().WithString("path", pathutil.ShorthandHome(path)).Message("Opening SQLite build store.")
		return buildstore.OpenSQLiteStore(path)
	case StoreDriverFS, "":
		dir, err := pathutil.ExpandHome(cfg.Dir)
		if err != nil {
			return nil, err
		}
		log.Debug().WithString("dir", pathutil.ShorthandHome(dir)).Message("Opening file system build store.")
		return buildstore.NewFSStore(buildstore.NewFS(dir)), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
	}
}

func newIconResolver(cfg IconsConfig) badge.IconResolver {
	r := badge.IconResolver{
		PluginName:       cfg.PluginName,
		HostResourcePath: cfg.HostResourcePath,
	}
	if cfg.PluginResourceDir != "" {
		r.PluginResources = os.DirFS(cfg.PluginResourceDir)
	}
	return r
}

func newEnvProvider(cfg EnvConfig, extraFiles []string) envvars.Provider {
	return envvars.SnapshotProvider{
		Files:    append(append([]string{}, extraFiles...), cfg.Files...),
		OSPrefix: cfg.OSPrefix,
		SkipOS:   cfg.SkipOS,
	}
}

func newAuthorizer(cfg SecurityConfig) (poststep.Authorizer, error) {
	if len(cfg.AllowedUsers) == 0 {
		return poststep.AllowAll, nil
	}
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return poststep.UserAuthorizer{User: u.Username, Allowed: cfg.AllowedUsers}, nil
}

// parseDefinitionPath returns the path to the job definition file, given
// either a directory containing one or the file itself.
func parseDefinitionPath(pathArg string) (string, error) {
	if pathArg == "" {
		pathArg = "."
	}
	abs, err := filepath.Abs(pathArg)
	if err != nil {
		return "", err
	}
	stat, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !stat.IsDir() {
		return abs, nil
	}
	defPath := filepath.Join(abs, jobrun.DefinitionFileName)
	if _, err := os.Stat(defPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("missing %s file in dir: %s", jobrun.DefinitionFileName, abs)
		}
		return "", err
	}
	return defPath, nil
}

func logParseErrors(errs errutil.Slice, path string) {
	log.Warn().
		WithString("path", pathutil.ShorthandHome(path)).
		WithInt("errors", len(errs)).
		Message("Cannot run job due to parsing errors.")
	log.Warn().Message("")
	for _, err := range errs {
		line, column := errutil.AsPos(err)
		if line > 0 {
			log.Warn().Messagef("%4d:%-4d %s", line, column, err.Error())
		} else {
			log.Warn().Messagef("   -:-    %s", err.Error())
		}
	}
	log.Warn().Message("")
}
