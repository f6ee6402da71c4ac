package framework

import (
	"context"
	"fmt"
)

// Step 处理链中的一步
type Step struct {
	Name string
	Fn   ProcessorFunc
}

// PreProcessor 函数链处理器
type PreProcessor struct {
	steps []Step
}

// NewPreProcessor 创建函数链处理器
func NewPreProcessor(steps ...Step) *PreProcessor {
	return &PreProcessor{
		steps: steps,
	}
}

// Run 依次执行函数链
// 任一步返回 error 或 ctx 已取消则立即停止，错误中带上步骤名
func (p *PreProcessor) Run(ctx context.Context) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
		if err := step.Fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}
