package client

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/xmackex/aurorascaler/logging"
)

const (
	rdsMetricNamespace    = "AWS/RDS"
	cpuUtilizationMetric  = "CPUUtilization"
	dbInstanceDimension   = "DBInstanceIdentifier"
	metricQueryIDTemplate = "m%d"
)

// CloudWatchMetrics reads reader CPU utilization time series using a single
// batched metric data call per evaluation.
type CloudWatchMetrics struct {
	svc *cloudwatch.CloudWatch
}

// NewCloudWatchMetrics creates a new AWS API session and CloudWatch service
// connection for use across all calls as required.
func NewCloudWatchMetrics(region string) *CloudWatchMetrics {
	sess := session.Must(session.NewSession())
	svc := cloudwatch.New(sess, &aws.Config{Region: aws.String(region)})
	return &CloudWatchMetrics{svc: svc}
}

// ReaderCPUSamples returns the ordered average CPU percentage samples for
// each requested reader over the trailing lookback window. All readers are
// fetched in one batched query; readers with no datapoints are simply absent
// from the result map.
func (m *CloudWatchMetrics) ReaderCPUSamples(ctx context.Context, readerIDs []string,
	lookback, period time.Duration) (map[string][]float64, error) {

	end := time.Now().UTC()
	start := end.Add(-lookback)

	queries := make([]*cloudwatch.MetricDataQuery, 0, len(readerIDs))
	queryReaders := make(map[string]string, len(readerIDs))

	for i, readerID := range readerIDs {
		queryID := fmt.Sprintf(metricQueryIDTemplate, i)
		queryReaders[queryID] = readerID

		queries = append(queries, &cloudwatch.MetricDataQuery{
			Id: aws.String(queryID),
			MetricStat: &cloudwatch.MetricStat{
				Metric: &cloudwatch.Metric{
					Namespace:  aws.String(rdsMetricNamespace),
					MetricName: aws.String(cpuUtilizationMetric),
					Dimensions: []*cloudwatch.Dimension{
						{
							Name:  aws.String(dbInstanceDimension),
							Value: aws.String(readerID),
						},
					},
				},
				Period: aws.Int64(int64(period.Seconds())),
				Stat:   aws.String("Average"),
			},
		})
	}

	samples := make(map[string][]float64, len(readerIDs))

	input := &cloudwatch.GetMetricDataInput{
		StartTime:         aws.Time(start),
		EndTime:           aws.Time(end),
		MetricDataQueries: queries,
		ScanBy:            aws.String(cloudwatch.ScanByTimestampAscending),
	}

	for {
		resp, err := m.svc.GetMetricDataWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("unable to read CPU utilization metrics: %v", err)
		}

		for _, result := range resp.MetricDataResults {
			readerID, ok := queryReaders[aws.StringValue(result.Id)]
			if !ok {
				continue
			}
			for _, value := range result.Values {
				samples[readerID] = append(samples[readerID], aws.Float64Value(value))
			}
		}

		if resp.NextToken == nil {
			break
		}
		input.NextToken = resp.NextToken
	}

	logging.Debug("client/cloudwatch: collected CPU samples for %v of %v "+
		"readers over the trailing %v", len(samples), len(readerIDs), lookback)

	return samples, nil
}
