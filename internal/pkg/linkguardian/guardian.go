package linkguardian

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/app/repository"
	"github.com/cosanostra/blacklink/internal/pkg/cache"
	"github.com/cosanostra/blacklink/internal/pkg/entitlements"
)

const (
	defaultSweepInterval = 30 * time.Minute
	checkTimeout         = 5 * time.Second
	sweepBatchSize       = 200
	cachePrefix          = "linkguardian:"
)

// Guardian periodically verifies that the Mercado Livre listings behind
// active products still exist. Dead listings (404/410) are deactivated and
// lose their featured slot so storefront pages never point at a removed
// offer.
type Guardian struct {
	interval time.Duration
	client   *http.Client

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

var (
	globalGuardian *Guardian
	guardianOnce   sync.Once
)

// GetGuardian returns the global guardian (singleton)
func GetGuardian() *Guardian {
	guardianOnce.Do(func() {
		globalGuardian = &Guardian{
			interval: defaultSweepInterval,
			client: &http.Client{
				Timeout: checkTimeout,
			},
		}
	})
	return globalGuardian
}

// Start launches the background sweeper
func (g *Guardian) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return
	}
	g.stopCh = make(chan struct{})
	g.running = true

	g.wg.Add(1)
	go g.sweepWorker()
	log.Infof("[LinkGuardian] Started (interval: %v)", g.interval)
}

// Stop signals the sweeper to exit and waits for it
func (g *Guardian) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.running {
		return
	}
	close(g.stopCh)
	g.running = false
	g.wg.Wait()
	log.Info("[LinkGuardian] Stopped")
}

func (g *Guardian) sweepWorker() {
	defer g.wg.Done()
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			log.Info("[LinkGuardian] Sweep worker stopping")
			return
		case <-ticker.C:
			g.Sweep()
		}
	}
}

// Sweep checks one batch of active Mercado Livre products. Only products
// whose owner's plan includes the guardian are touched.
func (g *Guardian) Sweep() {
	repos := repository.GetGlobalRepositories()
	products, err := repos.Product.GetActiveWithMercadoLivreLinks(sweepBatchSize)
	if err != nil {
		log.Errorf("[LinkGuardian] Product lookup failed: %v", err)
		return
	}

	owners := map[uint]*models.User{}
	checked, killed := 0, 0
	for i := range products {
		product := &products[i]

		owner, ok := owners[product.UserID]
		if !ok {
			owner, err = repos.User.GetByID(product.UserID)
			if err != nil {
				continue
			}
			owners[product.UserID] = owner
		}
		if !entitlements.LinkGuardianEnabled(owner.Plan) {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		alive, status := g.checkURL(ctx, product.URL)
		cancel()
		checked++

		now := time.Now().UTC()
		product.CheckedAt = &now
		product.LastCheckStatus = status
		if !alive {
			product.IsActive = false
			product.IsFeatured = false
			killed++
			log.Infof("[LinkGuardian] Deactivated product %d (status %d): %s", product.ID, status, product.URL)
			_ = cache.Delete("publicpage:" + owner.Username)
		}
		if err := repos.Product.Update(product); err != nil {
			log.Errorf("[LinkGuardian] Failed to update product %d: %v", product.ID, err)
		}
	}
	log.Infof("[LinkGuardian] Sweep done: %d checked, %d deactivated", checked, killed)
}

// checkURL probes a listing URL. HEAD first, GET on 405. Only a definite
// 404/410 counts as dead; network errors count as alive so a flaky upstream
// never hides live products.
func (g *Guardian) checkURL(ctx context.Context, rawURL string) (bool, int) {
	if !IsMercadoLivreURL(rawURL) {
		return true, 0
	}

	if cached, err := cache.Get(cachePrefix + rawURL); err == nil {
		if cached == "dead" {
			return false, http.StatusNotFound
		}
		if cached == "alive" {
			return true, http.StatusOK
		}
	}

	status, err := g.probe(ctx, http.MethodHead, rawURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = g.probe(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return true, 0
	}

	alive := status != http.StatusNotFound && status != http.StatusGone
	verdict := "alive"
	if !alive {
		verdict = "dead"
	}
	_ = cache.Set(cachePrefix+rawURL, verdict, g.interval)

	return alive, status
}

func (g *Guardian) probe(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; BlackLinkGuardian/1.0)")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// IsLinkAlive is the synchronous liveness check used by the affiliate
// redirect. Non Mercado Livre URLs always pass.
func IsLinkAlive(ctx context.Context, rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" {
		return false
	}
	alive, _ := GetGuardian().checkURL(ctx, rawURL)
	return alive
}

// InvalidateVerdict drops the cached liveness result for a URL so the next
// check probes it again.
func InvalidateVerdict(rawURL string) {
	_ = cache.Delete(cachePrefix + rawURL)
}

// IsMercadoLivreURL reports whether the URL points at a Mercado Livre
// listing
func IsMercadoLivreURL(rawURL string) bool {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	return strings.Contains(u, "mercadolivre.com") || strings.Contains(u, "mercadolibre.com")
}
