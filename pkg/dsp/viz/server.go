package viz

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
)

// Images are only rendered for buckets viewed within this window.
const viewerTimeout = 2 * time.Second

type ImageContainer struct {
	name string
	data []byte
}

func (i *ImageContainer) Name() string { return i.name }
func (i *ImageContainer) Data() []byte { return i.data }

type Producer interface {
	Name() string
	GetImage() *ImageContainer
	AddPlotOption(opt PlotOptions)
}

// Server renders registered producers on demand and serves the images over
// HTTP, grouped into buckets.
type Server struct {
	mu              sync.RWMutex
	images          map[string]map[string]*ImageContainer
	producerBuckets map[string]map[string]Producer
	lastViewed      map[string]time.Time
	updateInterval  time.Duration
	enabled         bool

	port  int
	srv   *http.Server
	ready chan struct{}
	addr  net.Addr
}

func NewServer(port int, updateInterval time.Duration) *Server {
	return &Server{
		images:          make(map[string]map[string]*ImageContainer),
		producerBuckets: make(map[string]map[string]Producer),
		lastViewed:      make(map[string]time.Time),
		updateInterval:  updateInterval,
		enabled:         true,
		port:            port,
		srv:             &http.Server{},
		ready:           make(chan struct{}),
	}
}

func (s *Server) Enable(enable bool) {
	s.mu.Lock()
	s.enabled = enable
	s.mu.Unlock()
}

func (s *Server) Register(key string, p Producer) {
	s.mu.Lock()
	bucket, ok := s.producerBuckets[key]
	if !ok {
		bucket = make(map[string]Producer)
		s.producerBuckets[key] = bucket
	}
	bucket[p.Name()] = p
	s.mu.Unlock()
}

// Addr blocks until the listener is bound and returns its address.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ready:
		return s.addr, nil
	}
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// refresh renders every producer in buckets that someone is looking at.
func (s *Server) refresh() {
	s.mu.RLock()
	if !s.enabled {
		s.mu.RUnlock()
		return
	}
	type job struct {
		bucket string
		p      Producer
	}
	var jobs []job
	for name, bucket := range s.producerBuckets {
		if time.Since(s.lastViewed[name]) > viewerTimeout {
			continue
		}
		for _, p := range bucket {
			jobs = append(jobs, job{name, p})
		}
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			img := j.p.GetImage()
			if img == nil {
				return
			}
			s.mu.Lock()
			mb, ok := s.images[j.bucket]
			if !ok {
				mb = make(map[string]*ImageContainer)
				s.images[j.bucket] = mb
			}
			mb[img.name] = img
			s.mu.Unlock()
		}(j)
	}
	wg.Wait()
}

func (s *Server) markViewed(bucket string) {
	s.mu.Lock()
	s.lastViewed[bucket] = time.Now()
	s.mu.Unlock()
}

func (s *Server) handler() http.Handler {
	handler := httprouter.New()

	handler.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s.mu.RLock()
		keys := make([]string, 0, len(s.producerBuckets))
		for name := range s.producerBuckets {
			keys = append(keys, name)
		}
		s.mu.RUnlock()

		if len(keys) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		sort.Strings(keys)
		w.Header().Set("Location", "/view/"+url.PathEscape(keys[0]))
		w.WriteHeader(http.StatusFound)
	})

	handler.GET("/view/:bucket", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		bucket := params.ByName("bucket")

		s.mu.RLock()
		items, ok := s.producerBuckets[bucket]
		names := make([]string, 0, len(items))
		for name := range items {
			names = append(names, name)
		}
		buckets := make([]string, 0, len(s.producerBuckets))
		for name := range s.producerBuckets {
			buckets = append(buckets, name)
		}
		s.mu.RUnlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.markViewed(bucket)
		sort.Strings(names)
		sort.Strings(buckets)

		w.Header().Add("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head><title>BPSK Viz</title>
		<script type="text/javascript">
			var toggleRefresh = true;
			function toggleOn() { toggleRefresh = !toggleRefresh; }
			function changeBucket() {
				window.location.href = '/view/' + document.getElementById('bucketSelector').value;
			}
			window.onload = function() {
				for (var i = 0; i < %d; i++) {
					setInterval(function(image) {
						if (toggleRefresh) {
							image.src = image.src.split("?")[0] + "?" + new Date().getTime();
						}
					}, %d, document.getElementById('graph-' + i));
				}
			}
		</script></head><body style='background-color: black'>`, len(names), s.updateInterval.Milliseconds())

		fmt.Fprint(w, `<select id="bucketSelector" onchange="changeBucket()">`)
		for _, name := range buckets {
			selected := ""
			if name == bucket {
				selected = " selected"
			}
			fmt.Fprintf(w, `<option value="%s"%s>%s</option>`, name, selected, name)
		}
		fmt.Fprint(w, `</select><button onclick="toggleOn()">Refresh?</button>`)

		fmt.Fprint(w, `<div style="display: flex; flex-direction: row; flex-wrap: wrap">`)
		for idx, name := range names {
			fmt.Fprintf(w, `<div><img id="graph-%d" src="/img/%s/%s?%d" /></div>`,
				idx, url.PathEscape(bucket), url.PathEscape(name), time.Now().UnixMicro())
		}
		fmt.Fprint(w, `</div></body></html>`)
	})

	handler.GET("/img/:bucket/:img", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		bucketName := params.ByName("bucket")
		s.markViewed(bucketName)

		s.mu.RLock()
		img, ok := s.images[bucketName][params.ByName("img")]
		s.mu.RUnlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Add("Content-Type", "image/png")
		w.Write(img.data)
	})

	return handler
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}
	s.addr = ln.Addr()
	close(s.ready)

	s.srv.Handler = s.handler()

	go func() {
		ticker := time.NewTicker(s.updateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				s.srv.Shutdown(shutdownCtx)
				cancel()
				return
			case <-ticker.C:
				s.refresh()
			}
		}
	}()

	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
