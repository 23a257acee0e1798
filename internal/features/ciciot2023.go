package features

// CICIoT2023 returns the reference table: the 39-column CICIoT2023 schema and
// the 19 features ranked by random-forest importance in the hybrid BSO run.
func CICIoT2023() *Table {
	return &Table{
		Dataset: "CICIoT2023",
		Features: []Feature{
			{"Header_Length", "Header length of the packet"},
			{"Protocol Type", "Protocol type identifier"},
			{"Time_To_Live", "Time-to-live of the packet"},
			{"Rate", "Packet rate"},
			{"fin_flag_number", "FIN flag count"},
			{"syn_flag_number", "SYN flag count"},
			{"rst_flag_number", "RST flag count"},
			{"psh_flag_number", "PSH flag count"},
			{"ack_flag_number", "ACK flag count"},
			{"ece_flag_number", "ECE flag count"},
			{"cwr_flag_number", "CWR flag count"},
			{"ack_count", "ACK packet count"},
			{"syn_count", "SYN packet count"},
			{"fin_count", "FIN packet count"},
			{"rst_count", "RST packet count"},
			{"HTTP", "HTTP protocol indicator"},
			{"HTTPS", "HTTPS protocol indicator"},
			{"DNS", "DNS protocol indicator"},
			{"Telnet", "Telnet protocol indicator"},
			{"SMTP", "SMTP protocol indicator"},
			{"SSH", "SSH protocol indicator"},
			{"IRC", "IRC protocol indicator"},
			{"TCP", "TCP protocol indicator"},
			{"UDP", "UDP protocol indicator"},
			{"DHCP", "DHCP protocol indicator"},
			{"ARP", "ARP protocol indicator"},
			{"ICMP", "ICMP protocol indicator"},
			{"IGMP", "IGMP protocol indicator"},
			{"IPv", "IPv protocol indicator"},
			{"LLC", "LLC protocol indicator"},
			{"Tot sum", "Total sum of packets"},
			{"Min", "Minimum packet size"},
			{"Max", "Maximum packet size"},
			{"AVG", "Average packet size"},
			{"Std", "Standard deviation of packet size"},
			{"Tot size", "Total size of packets"},
			{"IAT", "Inter-arrival time"},
			{"Number", "Number of packets"},
			{"Variance", "Variance of packet size"},
		},
		Ranked: []RankedFeature{
			{1, "syn_count", 0.224480, 12},
			{2, "Number", 0.183394, 37},
			{3, "Tot sum", 0.154063, 30},
			{4, "Rate", 0.105115, 3},
			{5, "Max", 0.085952, 32},
			{6, "Header_Length", 0.066085, 0},
			{7, "HTTPS", 0.051489, 16},
			{8, "Time_To_Live", 0.045447, 2},
			{9, "psh_flag_number", 0.020764, 7},
			{10, "HTTP", 0.019776, 15},
			{11, "fin_flag_number", 0.012970, 4},
			{12, "UDP", 0.012883, 23},
			{13, "DNS", 0.008363, 17},
			{14, "ARP", 0.003231, 25},
			{15, "LLC", 0.002768, 29},
			{16, "SSH", 0.001919, 20},
			{17, "DHCP", 0.000821, 24},
			{18, "IGMP", 0.000344, 27},
			{19, "cwr_flag_number", 0.000135, 10},
		},
		// Naive Bayes on all features.
		BaselineAccuracy: 88.92,
	}
}
