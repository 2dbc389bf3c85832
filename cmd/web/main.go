// Command web runs the web service that handles user interactions:
//   uploads, profiling reports, and conversion/downloads
package main

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joiningdata/seqio"

	"github.com/gorilla/sessions"
	"github.com/joiningdata/seqio/convert"
	"github.com/joiningdata/seqio/profile"
)

const (
	seqioSessionName = "seqio-session"
	maxUploadBytes   = 32 << 20 // 32MB
)

var (
	store     = sessions.NewCookieStore([]byte(os.Getenv("SESSION_KEY")))
	templates *template.Template

	profiler  *profile.Profiler
	converter *convert.Converter
)

func indexHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("index.html", templates.ExecuteTemplate(w, "index.html", nil))
}

func uploadHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := store.Get(r, seqioSessionName)

	if r.Method != http.MethodPost {
		http.Error(w, "upload missing", http.StatusBadRequest)
		return
	}

	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fhs, ok := r.MultipartForm.File["data"]
	if !ok {
		http.Error(w, "upload missing", http.StatusBadRequest)
		return
	}

	// sanitize the filename and extension
	fname := filepath.Base(fhs[0].Filename)
	fext := strings.ToLower(filepath.Ext(fname))
	fext = regexp.MustCompile("[^a-z0-9]*").ReplaceAllString(fext, "")
	fname = fmt.Sprintf("%x", sha256.Sum256([]byte(fname)))
	if fext != "" {
		fname += "." + fext
	}

	fin, err := fhs[0].Open()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer fin.Close()
	fout, err := os.Create(seqio.GetUploadPath(fname))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, err = io.Copy(fout, fin)
	if cerr := fout.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	session.Values["documentKey"] = fname
	token := profiler.Start(fname)

	session.Save(r, w)
	http.Redirect(w, r, "/report?k="+token, http.StatusSeeOther)
}

func reportHandler(w http.ResponseWriter, r *http.Request) {
	session, err := store.Get(r, seqioSessionName)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	token := r.URL.Query().Get("k")
	if token == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	session.Values["profileToken"] = token
	session.Save(r, w)

	ctx, done := profiler.Status(token)
	if !done {
		w.Header().Set("Refresh", "1;url=/report?k="+token)
		fmt.Fprint(w, "Please wait...")
		return
	} else if ctx == nil {
		http.Error(w, "profiling failed", http.StatusInternalServerError)
		return
	}

	log.Println("report.html", templates.ExecuteTemplate(w, "report.html", ctx))
}

func convertHandler(w http.ResponseWriter, r *http.Request) {
	session, err := store.Get(r, seqioSessionName)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	fname, _ := session.Values["documentKey"].(string)
	if fname == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	q := r.URL.Query()
	wrap, _ := strconv.Atoi(q.Get("wrap"))

	log.Println("Document: ", fname)
	log.Println("Convert to", q.Get("to"))

	token := converter.Start(fname, &convert.Options{
		OutputFormat: q.Get("to"),
		Wrap:         wrap,
		DropInvalid:  q.Get("dropinvalid") == "1",
	})

	http.Redirect(w, r, "/wait?k="+token, http.StatusSeeOther)
}

func waitHandler(w http.ResponseWriter, r *http.Request) {
	_, err := store.Get(r, seqioSessionName)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	token := r.URL.Query().Get("k")
	if token == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, done := converter.Status(token)
	if !done {
		w.Header().Set("Refresh", "1;url=/wait?k="+token)
		fmt.Fprint(w, "Please wait...")
		return
	} else if ctx == nil {
		http.Error(w, "no context", http.StatusInternalServerError)
		return
	}

	log.Println("ready.html", templates.ExecuteTemplate(w, "ready.html", ctx))
}

// downloadHandler packages the profiling report and any converted output
// into one zip archive.
func downloadHandler(w http.ResponseWriter, r *http.Request) {
	session, err := store.Get(r, seqioSessionName)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	ptoken, _ := session.Values["profileToken"].(string)
	if ptoken == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	res, done := profiler.Status(ptoken)
	if !done {
		http.Redirect(w, r, "/report?k="+ptoken, http.StatusSeeOther)
		return
	} else if res == nil {
		http.Error(w, "profiling failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-type", "application/zip")

	zw := zip.NewWriter(w)
	zwf, err := zw.Create("stats.json")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jb, _ := json.MarshalIndent(res, "", "    ")
	zwf.Write(jb)

	zwf, err = zw.Create("report.xlsx")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err = profile.WriteReport(zwf, res); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if ctoken := r.URL.Query().Get("k"); ctoken != "" {
		info, done := converter.Status(ctoken)
		if done && info != nil && info.Error == "" {
			zwf, err = zw.Create(info.NewFilename)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			f, err := os.Open(seqio.GetDownloadPath(info.NewFilename))
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			_, err = io.Copy(zwf, f)
			f.Close()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}
	zw.Close()
}

func main() {
	addr := flag.String("i", ":8080", "`address:port` to listen for web requests")
	flag.Parse()

	err := seqio.CheckDirectories()
	if err != nil {
		log.Fatal(err)
	}

	profiler = profile.NewProfiler()
	converter = convert.NewConverter()

	templates = template.New("seqio")
	templates.Funcs(template.FuncMap{
		"pct": func(v float64) string {
			return fmt.Sprintf("%0.2f%%", v*100.0)
		},
	})
	templates, err = templates.ParseGlob("templates/*.html")
	if err != nil {
		log.Fatal(err)
	}

	http.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))

	http.HandleFunc("/", indexHandler)            // index.html => POST to /upload
	http.HandleFunc("/upload", uploadHandler)     // file upload => redirect to /report
	http.HandleFunc("/report", reportHandler)     // report.html => GET to /convert or /download
	http.HandleFunc("/convert", convertHandler)   // begin conversion => redirect to /wait
	http.HandleFunc("/wait", waitHandler)         // ready.html => GET to /download
	http.HandleFunc("/download", downloadHandler) // package ZIP file
	log.Println(http.ListenAndServe(*addr, nil))
}
