package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

func SumArr(arr []float64) float64 {
	sum := 0.0
	for i := range arr {
		sum += arr[i]
	}
	return sum
}

func round(num float64) int {
	return int(num + math.Copysign(0.5, num))
}

// ToFixed truncate a float to a fixed number of decimal places
func ToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return float64(round(num*output)) / output
}

func CalculateDifference(x float64, y float64) float64 {
	//Get percentage difference between 2 numbers
	if y == 0 {
		y = 1
	}
	return (x - y) / y
}

// ConstrainFloat Limit a float to min, max, and decimal places
func ConstrainFloat(x float64, min float64, max float64, decimals int) float64 {
	return ToFixed(math.Max(min, math.Min(x, max)), decimals)
}

func TimestampToTime(timestamp int) time.Time {
	return time.Unix(int64(timestamp/1000), 0).UTC()
}

func TimeToTimestamp(timeObject time.Time) int {
	return int(timeObject.UnixNano() / 1000000)
}

// MinutesSince minutes elapsed between two instants, truncated.
func MinutesSince(from time.Time, to time.Time) int {
	return int(to.Sub(from).Minutes())
}

// CreateKeyValuePairs Format a map as a readable key/value block, keys sorted.
func CreateKeyValuePairs(m map[string]interface{}, line bool) string {
	b := new(bytes.Buffer)
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if line {
			fmt.Fprintf(b, "\n %s=\"%v\"", key, m[key])
		} else {
			fmt.Fprintf(b, "%s=\"%v\"", key, m[key])
		}
	}
	return b.String()
}

// LoadSecret fetch a json secret from amazon secrets manager and unmarshal
// it into out.
func LoadSecret(secretName string, region string, out interface{}) error {
	svc := secretsmanager.New(session.New(), aws.NewConfig().WithRegion(region))
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretName),
		VersionStage: aws.String("AWSCURRENT"),
	}
	result, err := svc.GetSecretValue(input)
	if err != nil {
		return fmt.Errorf("fetching secret %v: %v", secretName, err)
	}
	if result.SecretString == nil {
		return fmt.Errorf("secret %v has no string payload", secretName)
	}
	return json.Unmarshal([]byte(*result.SecretString), out)
}
