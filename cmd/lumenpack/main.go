// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command lumenpack builds lumen asset bundles out of a directory tree,
// typically compiled shaders destined for LUMEN_SHADER_BUNDLE.
package main

import (
	"errors"
	"flag"
	"os"
	"os/user"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/lumen/asset"
)

func init() {
	u, err := user.Current()
	if err != nil {
		currentUserName = "unknown"
		return
	}
	currentUserName = u.Name
}

var (
	currentUserName string
	author          = flag.String("author", currentUserName, "Set the author recorded in the bundle")
	pack            = flag.String("c", "", "Pack the given file/folder")
	list            = flag.String("l", "", "List the contents of the given bundle")
	dstFile         = flag.String("f", "out.lma", "Destination file")
)

func main() {
	flag.Parse()

	switch {
	case *pack != "" && *list != "":
		log.Fatal("only one operation at a time")
	case *pack != "":
		if err := packFiles(); err != nil {
			log.WithError(err).Fatal("packing failed")
		}
	case *list != "":
		if err := listBundle(); err != nil {
			log.WithError(err).Fatal("listing failed")
		}
	default:
		flag.PrintDefaults()
	}
}

func packFiles() error {
	if _, err := os.Stat(*dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	builder := asset.NewBuilder(asset.Index{
		Author:    *author,
		CreatedAt: time.Now().Unix(),
	})

	err := filepath.Walk(*pack, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(*pack, path)
		if err != nil {
			return err
		}
		return builder.Add(filepath.ToSlash(rel), data)
	})
	if err != nil {
		return err
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	written, err := builder.WriteTo(dst)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"file":  *dstFile,
		"bytes": written,
	}).Info("bundle written")
	return nil
}

func listBundle() error {
	ar, err := asset.OpenFile(*list)
	if err != nil {
		return err
	}
	defer ar.Close()

	index := ar.Index()
	log.WithFields(log.Fields{
		"author":  index.Author,
		"created": time.Unix(index.CreatedAt, 0),
		"entries": len(index.Entries),
	}).Info("bundle index")
	for _, e := range index.Entries {
		log.WithFields(log.Fields{
			"size":       e.Size,
			"compressed": e.CompressedSize,
		}).Info(e.Name)
	}
	return nil
}
