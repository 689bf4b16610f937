package storage

import "github.com/zeehio/aves/pkg/sample"

type multiWriter []RecordWriter

// MultiWriter fans each record out to every sink, e.g. the text
// file plus a database table. The first write error aborts, later
// sinks are skipped for that record; Close is attempted on all
// sinks regardless.
func MultiWriter(writers ...RecordWriter) RecordWriter {
	return multiWriter(writers)
}

func (mw multiWriter) Write(rec sample.Record) error {
	for _, w := range mw {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (mw multiWriter) Close() error {
	var first error
	for _, w := range mw {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
