package domains

import (
	"context"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/google/uuid"

	"cpq/backend/cpsync/internal/business"
	"cpq/backend/cpsync/internal/framework"
	"cpq/backend/cpsync/pkg/errorutil"
	"cpq/backend/cpsync/pkg/lmstfyx"
	"cpq/backend/cpsync/pkg/logger"
)

// GetProcess 返回核心处理函数（注入到 Processor）
func GetProcess(log logger.Logger, deps *business.Deps) lmstfyx.Proc {
	return getProcess(log, deps, HandlerMap)
}

func getProcess(log logger.Logger, deps *business.Deps, handlers map[string]HandlerFactory) lmstfyx.Proc {
	return func(ctx context.Context, lmstfyJob *client.Job) *lmstfyx.JobResp {
		startTime := time.Now()

		// 1. 解析 Job
		base, err := parseJob(ctx, lmstfyJob)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] parseJob failed: job_id=%s, err=%v", lmstfyJob.ID, err)
			return lmstfyx.Bury([]byte(err.Error()))
		}
		meta := base.GetMeta()

		// 2. 注入 TraceID 等元信息到 Context
		ctx = logger.WithTraceID(ctx, meta.RequestID)
		ctx = logger.WithActionType(ctx, meta.ActionType)
		ctx = logger.WithBatchID(ctx, meta.ID)

		log.Infof(ctx, "[GetProcess] Processing job: job_id=%s, action_type=%s, id=%s",
			lmstfyJob.ID, meta.ActionType, meta.ID)

		// 3. 从 HandlerMap 获取 Handler
		factory, ok := handlers[meta.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] handler not found for action_type: %s", meta.ActionType)
			return lmstfyx.Bury([]byte("unknown action_type: " + meta.ActionType))
		}

		// 4. 调用 Handler（捕获 panic）
		resp := runHandler(ctx, log, factory, base, deps)

		log.Infof(ctx, "[GetProcess] Processing complete: action=%s, duration=%v", resp.Action, time.Since(startTime))
		return resp
	}
}

// runHandler 创建并执行 Handler，按错误类型决定 ACK/Release/Bury
func runHandler(
	ctx context.Context,
	log logger.Logger,
	factory HandlerFactory,
	base *framework.BaseHandler,
	deps *business.Deps,
) (resp *lmstfyx.JobResp) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
			resp = lmstfyx.Bury([]byte(fmt.Sprintf("panic: %v", r)))
		}
	}()

	handler, err := factory(ctx, base, deps)
	if err != nil {
		log.Errorf(ctx, "[GetProcess] handler creation failed: %v", err)
		return lmstfyx.Bury([]byte(err.Error()))
	}

	data, err := handler.Handle(ctx)
	return doJobReport(ctx, log, data, err)
}

// parseJob 解析 Job，缺失 request_id 时生成一个
func parseJob(ctx context.Context, lmstfyJob *client.Job) (*framework.BaseHandler, error) {
	base := &framework.BaseHandler{}
	if err := base.ParseJob(ctx, lmstfyJob.Data); err != nil {
		return nil, err
	}

	meta := base.GetMeta()
	if meta.RequestID == "" {
		filled := *meta
		filled.RequestID = uuid.New().String()
		base.SetMeta(&filled)
	}
	return base, nil
}

// doJobReport 生成 JobResp
// 成功 → ACK；可重试错误 → Release；其余错误 → Bury
func doJobReport(ctx context.Context, log logger.Logger, data []byte, err error) *lmstfyx.JobResp {
	if err == nil {
		return lmstfyx.Success(data)
	}
	if errorutil.IsRetryable(err) {
		log.Warnf(ctx, "[doJobReport] retryable failure, job will be redelivered: %v", err)
		return lmstfyx.Release(data)
	}
	log.Errorf(ctx, "[doJobReport] non-retryable failure: %v", err)
	return lmstfyx.Bury(data)
}
