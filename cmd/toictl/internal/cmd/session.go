package cmd

import (
	"github.com/pkg/errors"

	"toi/internal/atomiccopy"
	"toi/internal/blockdev"
	"toi/internal/classify"
	"toi/internal/config"
	"toi/internal/engine"
	"toi/internal/hostmem"
	"toi/internal/ioacct"
	"toi/internal/logging"
	"toi/internal/module"
	"toi/internal/pipeline/filter/checksum"
	"toi/internal/pipeline/writer"
)

const pageSize = hostmem.DefaultPageSize

// session gathers everything a toictl subcommand needs to drive one
// Engine call: the arena, the writer (kept separately so image-exists/
// remove-image can use it without building a full Engine), and the Engine
// itself.
type session struct {
	arena  *hostmem.Arena
	dev    *blockdev.Device
	writer *writer.Swap
	eng    *engine.Engine
}

// openSession loads policy from configPath (if set), opens the backing
// device, and assembles an Engine wired with the checksum filter and the
// single-device swap writer — the same components internal/engine's own
// tests use, now pointed at real files instead of an in-memory fake.
func openSession() (*session, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	dev, err := blockdev.Open(devicePath, pageSize)
	if err != nil {
		return nil, errors.Wrapf(err, "open device %s", devicePath)
	}

	arena := hostmem.NewArena(arenaPages, pageSize)
	reg := module.NewRegistry()
	reg.RegisterFilter(checksum.New())
	w := writer.New(dev, pageSize, headerPages)
	if err := reg.RegisterWriter(w); err != nil {
		return nil, err
	}

	cls := classify.New(arena, classify.Options{
		FullPageset2:        cfg.FullPageset2,
		MaxShrinkRetries:    cfg.MaxShrinkRetries,
		ExtraPagesAllowance: cfg.ExtraPagesAllowance,
	})

	acct := &ioacct.Acct{}
	log := logging.New()
	eng := engine.New(arena, reg, cls, nil, atomiccopy.NewHostExec(), acct, cfg.ToPolicy(), log.WithField("cmd", "toictl"))

	return &session{arena: arena, dev: dev, writer: w, eng: eng}, nil
}

func (s *session) Close() error {
	return s.dev.Close()
}
