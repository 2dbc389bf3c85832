// Package formats describes the supported sequence file formats.
// The goal of this package is to support iteration of sequence records
// within any data set, without the caller knowing which format backs it:
//
//       +----------------------------------+
//       | Sequence File                    |
//       | +------------------------------+ |
//       | | Record 1                     | |
//       | | ID | Desc | Seq | (Qual)     | |
//       | +------------------------------+ |
//       | +------------------------------+ |
//       | | Record 2                     | |
//       | | ID | Desc | Seq | (Qual)     | |
//       | +------------------------------+ |
//       | +------------------------------+ |
//       | | Record 3                     | |
//       | | ID | Desc | Seq | (Qual)     | |
//       | +------------------------------+ |
//       +----------------------------------+
//
// Records always carry an identifier and sequence data; the description is
// optional and per-base quality values are only present for formats that
// record them (e.g. FASTQ).
//
// Concrete readers (FASTA, FASTQ) parse one known grammar. The Auto reader
// sniffs the leading bytes of a stream once, on first use, and then delegates
// to the matching concrete reader for the rest of its lifetime.
package formats
