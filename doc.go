// Package ogg implements the Ogg container format: the framing layer
// carrying Xiph codecs such as Vorbis, Opus, Theora, and FLAC-in-Ogg.
//
// It works in both directions. Decoding: a byte source is resynchronized
// into pages (SyncBuffer, Page), pages are demultiplexed per logical
// stream into packets (Decoder, Stream), and a seekable source supports
// granule-position bisection search (Decoder.SeekToGranule). Encoding:
// packets with granule positions are multiplexed into well-formed pages
// (Encoder) and written to a byte sink.
//
// A lower-level, page-at-a-time surface (PageDecoder, PageEncoder) is also
// exported for callers that want to manage pagination themselves rather
// than go through the packet-reassembling Decoder/Encoder.
//
// Codec payload interpretation, filename/file-type handling, network
// transport, and concurrent multi-producer encoding are all out of scope;
// this package only ever sees packet and page bytes.
package ogg
