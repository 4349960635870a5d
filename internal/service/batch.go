package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"alertflow/conf"
	"alertflow/internal/model"
	"alertflow/pkg/logger"

	"github.com/shopspring/decimal"
)

// 分批下单：把一笔市价单拆成若干随机数量的小单，
// 在指定时长内匀速执行，进度在内存中跟踪

type BatchStatus string

const (
	BatchActive    BatchStatus = "active"
	BatchCompleted BatchStatus = "completed"
	BatchError     BatchStatus = "error"
)

type BatchOrder struct {
	ID             string              `json:"batch_id"`
	Symbol         string              `json:"symbol"`
	Side           model.OrderSide     `json:"side"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	ExecutedAmount decimal.Decimal     `json:"executed_amount"`
	Orders         []model.OrderResult `json:"orders"`
	Status         BatchStatus         `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
}

type BatchRegistry struct {
	mu      sync.RWMutex
	batches map[string]*BatchOrder
}

func NewBatchRegistry() *BatchRegistry {
	return &BatchRegistry{batches: make(map[string]*BatchOrder)}
}

func (r *BatchRegistry) Get(id string) (BatchOrder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches[id]
	if !ok {
		return BatchOrder{}, false
	}
	return *b, true
}

func (r *BatchRegistry) List() []BatchOrder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]BatchOrder, 0, len(r.batches))
	for _, b := range r.batches {
		items = append(items, *b)
	}
	return items
}

func (r *BatchRegistry) put(b *BatchOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = b
}

func (r *BatchRegistry) record(id string, result model.OrderResult, amount decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.batches[id]; ok {
		b.Orders = append(b.Orders, result)
		b.ExecutedAmount = b.ExecutedAmount.Add(amount)
	}
}

func (r *BatchRegistry) setStatus(id string, status BatchStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.batches[id]; ok {
		b.Status = status
	}
}

// BatchParams 分批执行参数，来自请求，StartBatch前已校验
type BatchParams struct {
	Count       int
	Duration    time.Duration
	MinPerBatch decimal.Decimal
	MaxPerBatch decimal.Decimal
}

// ValidateBatch 分批参数的一致性检查，任何缺失或矛盾都报错
func ValidateBatch(req model.OrderRequest, limits conf.BatchConfig) (*BatchParams, error) {
	if req.BatchCount <= 0 || req.BatchDurationMinutes <= 0 ||
		req.MinAmountPerBatch == nil || req.MaxAmountPerBatch == nil {
		return nil, fmt.Errorf("batch order requires batch_count, batch_duration_minutes, min_amount_per_batch and max_amount_per_batch")
	}
	min, max := *req.MinAmountPerBatch, *req.MaxAmountPerBatch
	if !min.IsPositive() || max.LessThan(min) {
		return nil, fmt.Errorf("invalid per-batch amount range [%s, %s]", min, max)
	}
	if limits.MaxCount > 0 && req.BatchCount > limits.MaxCount {
		return nil, fmt.Errorf("batch_count exceeds limit %d", limits.MaxCount)
	}
	if limits.MaxDurationMinutes > 0 && req.BatchDurationMinutes > limits.MaxDurationMinutes {
		return nil, fmt.Errorf("batch_duration_minutes exceeds limit %d", limits.MaxDurationMinutes)
	}
	count := decimal.NewFromInt(int64(req.BatchCount))
	if req.Amount.LessThan(min.Mul(count)) || req.Amount.GreaterThan(max.Mul(count)) {
		return nil, fmt.Errorf("total amount %s not reachable with %d batches in [%s, %s]",
			req.Amount, req.BatchCount, min, max)
	}
	return &BatchParams{
		Count:       req.BatchCount,
		Duration:    time.Duration(req.BatchDurationMinutes) * time.Minute,
		MinPerBatch: min,
		MaxPerBatch: max,
	}, nil
}

// SplitAmounts 把total拆成count份，每份落在[min,max]内且总和精确等于total。
// 前面的批次取随机值，同时保证剩余数量仍然可以被后续批次消化，
// 最后一批直接取剩余
func SplitAmounts(total decimal.Decimal, count int, min, max decimal.Decimal, rng *rand.Rand) []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, count)
	remaining := total
	for i := 0; i < count; i++ {
		left := count - i
		if left == 1 {
			amounts = append(amounts, remaining)
			break
		}
		rest := decimal.NewFromInt(int64(left - 1))
		// 本批次的可行区间
		lo := decimal.Max(min, remaining.Sub(max.Mul(rest)))
		hi := decimal.Min(max, remaining.Sub(min.Mul(rest)))
		span, _ := hi.Sub(lo).Float64()
		pick := lo
		if span > 0 {
			pick = lo.Add(decimal.NewFromFloat(rng.Float64() * span)).Round(8)
			// 取整后可能越界，夹回区间
			pick = decimal.Max(lo, decimal.Min(hi, pick))
		}
		amounts = append(amounts, pick)
		remaining = remaining.Sub(pick)
	}
	return amounts
}

// StartBatch 登记并在后台执行分批订单，立即返回batch id。
// leverage>0时先设置杠杆
func (s *FuturesService) StartBatch(ctx context.Context, intent *model.OrderIntent, params *BatchParams) (string, error) {
	if err := s.guard(); err != nil {
		return "", err
	}
	if intent.RequiresLeverageCall() {
		if err := s.ex.SetLeverage(ctx, intent.Symbol, intent.Leverage); err != nil {
			return "", fmt.Errorf("set leverage: %w", err)
		}
	}

	batch := &BatchOrder{
		ID:          fmt.Sprintf("%s_%s_%d", intent.Symbol, intent.Side, time.Now().UnixNano()),
		Symbol:      intent.Symbol,
		Side:        intent.Side,
		TotalAmount: intent.Amount,
		Status:      BatchActive,
		CreatedAt:   time.Now(),
	}
	s.batches.put(batch)

	go s.runBatch(batch.ID, intent, params)
	return batch.ID, nil
}

func (s *FuturesService) runBatch(id string, intent *model.OrderIntent, params *BatchParams) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	amounts := SplitAmounts(intent.Amount, params.Count, params.MinPerBatch, params.MaxPerBatch, rng)
	interval := params.Duration / time.Duration(params.Count)

	for i, amount := range amounts {
		result, err := s.ex.PlaceOrder(context.Background(), &model.OrderIntent{
			Symbol:     intent.Symbol,
			Side:       intent.Side,
			Type:       model.Market,
			Amount:     amount,
			ReduceOnly: intent.ReduceOnly,
		})
		if err != nil {
			logger.Errorf("分批订单执行失败 batch=%s 第%d批: %v", id, i+1, err)
			s.batches.setStatus(id, BatchError)
			return
		}
		s.batches.record(id, *result, amount)
		s.publish(intent.Symbol, "batch_order", result)
		logger.Infof("分批订单 %d/%d 已执行: %s, 数量: %s", i+1, len(amounts), result.OrderID, amount)

		if i < len(amounts)-1 {
			time.Sleep(interval)
		}
	}
	s.batches.setStatus(id, BatchCompleted)
}

// Batch 查询单个分批订单
func (s *FuturesService) Batch(id string) (BatchOrder, bool) {
	return s.batches.Get(id)
}

// Batches 全部分批订单
func (s *FuturesService) Batches() []BatchOrder {
	return s.batches.List()
}
