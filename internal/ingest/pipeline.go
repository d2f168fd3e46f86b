package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/fredneedsausername/gatekeeper/internal/database"
	"github.com/fredneedsausername/gatekeeper/internal/metrics"
)

// Pipeline processes decoded gateway reports into tag telemetry and
// gate-crossing records. All per-tag state lives in the database; requests
// coordinate only through row locks, so concurrent gateway posts are safe.
type Pipeline struct {
	db  *database.DB
	log zerolog.Logger

	batteryMaxMillivolts int
	closeOpenLogOnEnter  bool
	autoRegisterTags     bool
	deviceTimeout        time.Duration

	deviceCount atomic.Int64
	eventCount  atomic.Int64
}

type Options struct {
	DB                   *database.DB
	BatteryMaxMillivolts int
	CloseOpenLogOnEnter  bool
	AutoRegisterTags     bool
	DeviceTimeout        time.Duration
	Log                  zerolog.Logger
}

func NewPipeline(opts Options) *Pipeline {
	log := opts.Log.With().Str("component", "ingest").Logger()
	if !opts.CloseOpenLogOnEnter {
		log.Info().Msg("duplicate-open mode active (CLOSE_OPEN_LOG_ON_ENTER=false)")
	}
	if opts.AutoRegisterTags {
		log.Info().Msg("unknown tags will be auto-registered (AUTO_REGISTER_TAGS=true)")
	}
	return &Pipeline{
		db:                   opts.DB,
		log:                  log,
		batteryMaxMillivolts: opts.BatteryMaxMillivolts,
		closeOpenLogOnEnter:  opts.CloseOpenLogOnEnter,
		autoRegisterTags:     opts.AutoRegisterTags,
		deviceTimeout:        opts.DeviceTimeout,
	}
}

// DeviceCount returns the number of device reports processed since start.
func (p *Pipeline) DeviceCount() int64 { return p.deviceCount.Load() }

// EventCount returns the number of crossing events recorded since start.
func (p *Pipeline) EventCount() int64 { return p.eventCount.Load() }

// ProcessDeviceList runs every device of one gateway report. Each device is
// its own transaction: a failure rolls back that device's writes and the
// loop continues with the next one.
func (p *Pipeline) ProcessDeviceList(ctx context.Context, devices []Device) {
	for i, dev := range devices {
		if err := p.ProcessDevice(ctx, dev); err != nil {
			p.log.Warn().Err(err).Int("device_index", i).Msg("device processing failed, skipping")
		}
	}
}

// ProcessDevice decodes and applies a single device report under one
// transaction. Malformed or irrelevant frames are dropped silently.
func (p *Pipeline) ProcessDevice(ctx context.Context, dev Device) error {
	metrics.DevicesTotal.Inc()
	p.deviceCount.Add(1)

	frame, reason := DecodeDevice(dev)
	if reason != DropNone {
		metrics.FramesDroppedTotal.WithLabelValues(string(reason)).Inc()
		p.log.Debug().Str("reason", string(reason)).Msg("frame dropped")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.deviceTimeout)
	defer cancel()

	return p.db.WithTx(ctx, func(tx pgx.Tx) error {
		return p.applyFrame(ctx, tx, frame)
	})
}

// applyFrame is the per-device pipeline: telemetry update, direction
// resolution, event classification and recording.
func (p *Pipeline) applyFrame(ctx context.Context, tx pgx.Tx, frame *Frame) error {
	state, err := database.LookupTagState(ctx, tx, frame.MAC)
	if errors.Is(err, database.ErrNotFound) {
		if !p.autoRegisterTags {
			metrics.FramesDroppedTotal.WithLabelValues("unknown_tag").Inc()
			p.log.Debug().Str("mac", frame.MAC).Msg("packet from unregistered tag dropped")
			return nil
		}
		state, err = database.RegisterTag(ctx, tx, frame.MAC)
		if err != nil {
			return err
		}
		p.log.Info().Str("mac", frame.MAC).Int("tag_id", state.ID).Msg("tag auto-registered")
	} else if err != nil {
		return err
	}

	battery := BatteryPercent(frame.BatteryMillivolts, p.batteryMaxMillivolts)
	res, err := database.UpdateTelemetry(ctx, tx, state.ID, battery, frame.PacketCounter, frame.ActivatorNumber)
	if err != nil {
		return err
	}

	if res.Duplicate(frame.PacketCounter) {
		metrics.FramesDroppedTotal.WithLabelValues("duplicate_counter").Inc()
		return nil
	}
	if res.OldPrevious == nil {
		// First half of a pair: pairing established, nothing to infer yet.
		return nil
	}
	if res.NewPrevious == nil {
		metrics.FramesDroppedTotal.WithLabelValues("unknown_activator").Inc()
		p.log.Debug().Uint16("activator", frame.ActivatorNumber).Msg("unknown activator number")
		return nil
	}

	prev, err := database.GetBeacon(ctx, tx, *res.OldPrevious)
	if errors.Is(err, database.ErrNotFound) {
		metrics.FramesDroppedTotal.WithLabelValues("deleted_activator").Inc()
		return nil
	}
	if err != nil {
		return err
	}
	curr, err := database.GetBeacon(ctx, tx, *res.NewPrevious)
	if errors.Is(err, database.ErrNotFound) {
		metrics.FramesDroppedTotal.WithLabelValues("deleted_activator").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	dir, ok := ResolveDirection(prev, curr)
	if !ok {
		metrics.FramesDroppedTotal.WithLabelValues("rejected_pair").Inc()
		return nil
	}

	if err := p.recordEvent(ctx, tx, state.ID, curr.ShipyardID, dir); err != nil {
		return err
	}

	// An emitted event consumes the pair: the next event needs a fresh one.
	// This is what keeps retransmissions of a single crossing from firing
	// repeated events.
	return database.ClearPairing(ctx, tx, state.ID)
}

// recordEvent writes the crossing to exactly one of the two event tables
// depending on whether the tag is held by a crew member.
func (p *Pipeline) recordEvent(ctx context.Context, tx pgx.Tx, tagID, shipyardID int, dir Direction) error {
	crewMemberID, err := database.FindCrewMemberByTag(ctx, tx, tagID)
	if errors.Is(err, database.ErrNotFound) {
		if err := database.InsertUnassignedEntry(ctx, tx, tagID, shipyardID, dir == Entering); err != nil {
			return err
		}
		metrics.EventsEmittedTotal.WithLabelValues("unassigned_entry", dir.String()).Inc()
		p.eventCount.Add(1)
		p.log.Debug().Int("tag_id", tagID).Int("shipyard_id", shipyardID).
			Str("direction", dir.String()).Msg("unassigned tag crossing recorded")
		return nil
	}
	if err != nil {
		return err
	}

	switch dir {
	case Entering:
		if p.closeOpenLogOnEnter {
			if _, err := database.CloseMostRecentOpenLog(ctx, tx, crewMemberID, shipyardID); err != nil {
				return err
			}
		}
		if err := database.OpenLog(ctx, tx, crewMemberID, shipyardID); err != nil {
			return err
		}
	case Leaving:
		closed, err := database.CloseMostRecentOpenLog(ctx, tx, crewMemberID, shipyardID)
		if err != nil {
			return err
		}
		if !closed {
			if err := database.InsertLeaveOnlyLog(ctx, tx, crewMemberID, shipyardID); err != nil {
				return err
			}
		}
	}

	metrics.EventsEmittedTotal.WithLabelValues("permanence_log", dir.String()).Inc()
	p.eventCount.Add(1)
	p.log.Debug().Int("crew_member_id", crewMemberID).Int("shipyard_id", shipyardID).
		Str("direction", dir.String()).Msg("permanence transition recorded")
	return nil
}
