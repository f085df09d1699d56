// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the papaper pipeline:
// publication metadata tracked by acquisition, vector-index entries, ranked
// retrieval results, and the worker message protocol.
package types

import "encoding/json"

// DownloadStatus records the outcome of a full-text fetch attempt for one
// publication.
type DownloadStatus string

const (
	// DownloadNone means no fetch has been attempted yet. It is the zero
	// value and is omitted from the serialized record, so a crash between
	// discovery and fetch leaves a record without a download key.
	DownloadNone DownloadStatus = ""

	DownloadSucceeded DownloadStatus = "succeeded"
	DownloadFailed    DownloadStatus = "failed"
)

// PublicationRecord is one discovered publication. Fields holds the
// provider's bibliographic record verbatim; papaper never interprets it
// beyond the year and title used as the record's identity.
type PublicationRecord struct {
	Fields   map[string]any
	Download DownloadStatus
}

// MarshalJSON flattens the record into a single object: the bibliographic
// fields plus a "download" key when a fetch has been attempted.
func (r PublicationRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		m[k] = v
	}
	if r.Download != DownloadNone {
		m["download"] = string(r.Download)
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the "download" key back out of the flattened object.
func (r *PublicationRecord) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if v, ok := m["download"].(string); ok {
		r.Download = DownloadStatus(v)
		delete(m, "download")
	}
	r.Fields = m
	return nil
}

// Metadata maps publication year to title to record for one search keyword.
// It is the on-disk source of truth for acquisition resumability: the total
// record count equals the number of papers searched so far, regardless of
// each record's download outcome.
type Metadata map[string]map[string]PublicationRecord

// Count returns the number of distinct (year, title) records.
func (m Metadata) Count() int {
	n := 0
	for _, titles := range m {
		n += len(titles)
	}
	return n
}

// Lookup returns the record for (year, title) if one exists.
func (m Metadata) Lookup(year, title string) (PublicationRecord, bool) {
	titles, ok := m[year]
	if !ok {
		return PublicationRecord{}, false
	}
	rec, ok := titles[title]
	return rec, ok
}

// Put stores rec under (year, title), creating the year bucket on first use.
func (m Metadata) Put(year, title string, rec PublicationRecord) {
	titles, ok := m[year]
	if !ok {
		titles = make(map[string]PublicationRecord)
		m[year] = titles
	}
	titles[title] = rec
}

// MergeFields refreshes the bibliographic fields of an existing record on
// rediscovery, preserving its download status. Missing records are created
// with no download attempt recorded.
func (m Metadata) MergeFields(year, title string, fields map[string]any) {
	rec, _ := m.Lookup(year, title)
	if rec.Fields == nil {
		rec.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}
	m.Put(year, title, rec)
}
