// Command index builds and queries a sqlite index of sequence files:
//
//    index -db seqs.sqlite file1.fasta file2.fastq ...
//    index -db seqs.sqlite -find seq42
//    index -db seqs.sqlite -list
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joiningdata/seqio/formats"
	"github.com/joiningdata/seqio/index"
)

func main() {
	dbname := flag.String("db", "seqs.sqlite", "database `filename` for the sequence index")
	find := flag.String("find", "", "report indexed files containing the record `identifier`")
	list := flag.Bool("list", false, "list indexed files and exit")
	flag.Parse()

	db, err := index.Open(*dbname)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if *list {
		files, err := db.Files()
		if err != nil {
			log.Fatal(err)
		}
		for _, fi := range files {
			fmt.Printf("%s\t%s\t%d records\t%d bases\n", fi.Path, fi.Format, fi.Records, fi.Bases)
		}
		return
	}

	if *find != "" {
		hits, err := db.FindRecord(*find)
		if err != nil {
			log.Fatal(err)
		}
		if len(hits) == 0 {
			log.Fatalf("record %q not found in any indexed file", *find)
		}
		for _, h := range hits {
			fmt.Printf("%s\trecord %d of %d\tlength %d\n", h.Path, h.Ordinal, h.Records, h.Length)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			log.Fatal(err)
		}
		info, err := db.IndexFile(path, formats.NewAuto(f))
		f.Close()
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		log.Printf("%s :: %s = %d records, %d bases indexed", path, info.Format, info.Records, info.Bases)
	}
}
