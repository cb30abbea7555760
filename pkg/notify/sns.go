package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/carl-sl-li/lambda-no-secret/pkg/report"
	"github.com/carl-sl-li/lambda-no-secret/pkg/vault"
)

// AWSCredentialSource issues the scoped AWS credential used to publish.
// Satisfied by *vault.Client.
type AWSCredentialSource interface {
	AWSCredential(ctx context.Context, path string) (vault.AWSCredential, error)
}

// snsAPI is the slice of the SNS client the notifier uses.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes the report to an SNS topic. It fetches its own
// broker credential rather than reusing the AWS billing adapter's, so a
// failed AWS bill query cannot block delivery of the partial report.
type SNSNotifier struct {
	creds    AWSCredentialSource
	credPath string
	topicARN string
	region   string
	newAPI   func(vault.AWSCredential) snsAPI
}

// NewSNSNotifier creates an SNS notifier publishing to topicARN.
func NewSNSNotifier(creds AWSCredentialSource, credPath, topicARN, region string) *SNSNotifier {
	n := &SNSNotifier{creds: creds, credPath: credPath, topicARN: topicARN, region: region}
	n.newAPI = n.snsClient
	return n
}

func (n *SNSNotifier) Name() string { return "sns" }

func (n *SNSNotifier) snsClient(cred vault.AWSCredential) snsAPI {
	cfg := aws.Config{
		Region: n.region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cred.AccessKeyID, cred.SecretAccessKey, cred.SessionToken),
	}
	return sns.NewFromConfig(cfg)
}

func (n *SNSNotifier) Send(ctx context.Context, r *report.Report) error {
	cred, err := n.creds.AWSCredential(ctx, n.credPath)
	if err != nil {
		return &DeliveryError{Notifier: n.Name(), Err: err}
	}

	_, err = n.newAPI(cred).Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(r.Subject),
		Message:  aws.String(r.Body()),
	})
	if err != nil {
		return &DeliveryError{Notifier: n.Name(), Err: err}
	}
	return nil
}
