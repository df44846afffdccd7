// Package domain models per-state COVID-19 daily reporting data and the
// statistics the state map is drawn from.
//
// # Data Source
//
// Daily records originate from the COVID Tracking Project style state daily
// feed. The upstream publisher emits one JSON object per state per day onto the
// Kafka source topic. Records may arrive out of order and the same state/date
// may be republished when a state revises its numbers; the latest copy wins.
//
// # Data Conventions
//
// Date format:
//
//	YYYYMMDD as an integer, e.g. 20200415 = April 15, 2020 (interpreted as UTC).
//
// Counters:
//
//	positive, negative            cumulative test results
//	positiveIncrease,
//	negativeIncrease              new results reported that day
//	totalTestResultsIncrease      new tests reported that day
//
//	Increases can be negative when a state removes duplicates. Missing and null
//	counters are treated as zero.
//
// # Trailing Window
//
// Every statistic is derived from the most recent [WindowDays] records of a
// region. Most states report fewer tests on weekends, so single-day values show
// a strong day-of-week effect that the seven-day window smooths out.
//
// # Metrics
//
// Metric definitions are a fixed registry (see [Metrics]). Each one pairs a
// derivation, a display formatter, and severity levels forming half-open
// intervals [min, max) that together cover the whole real line:
//
//	cases:             <1,000 low | <2,000 medium | >=2,000 high
//	tests:             <100 low   | <250 medium   | >=250 high      (per 100k)
//	percent-positive:  <5% low    | <10% medium   | >=10% high
//
// Percent positive is Σpositive / Σ(positive+negative) across the window, never
// the mean of daily ratios. A window with no reported tests yields 0.
package domain
