package reinvoke

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/samber/do"
)

// Invoker starts a function without waiting for its result.
type Invoker interface {
	InvokeAsync(ctx context.Context, functionName string, payload []byte) error
}

var _ Invoker = (*LambdaInvoker)(nil)

type LambdaInvoker struct {
	client *lambda.Client
}

func NewLambdaInvoker(_ *do.Injector) (*LambdaInvoker, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &LambdaInvoker{
		client: lambda.NewFromConfig(awsCfg),
	}, nil
}

func (l *LambdaInvoker) InvokeAsync(ctx context.Context, functionName string, payload []byte) error {
	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", functionName, err)
	}

	if out.FunctionError != nil {
		return fmt.Errorf("function %s failed: %s", functionName, aws.ToString(out.FunctionError))
	}

	return nil
}
